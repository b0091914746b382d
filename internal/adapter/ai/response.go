package ai

import (
	"time"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// PayloadToResponse lifts a decoded payload into the canonical response
// shape. ID assignment stays with the pipeline.
func PayloadToResponse(p Payload, provider, model string) domain.CanonicalResponse {
	return domain.CanonicalResponse{
		Answer:              p.Answer,
		Provider:            provider,
		Model:               model,
		ExperienceMentioned: p.ExperienceMentioned,
		KeyTechnologies:     p.KeyTechnologies,
		FollowUpTopics:      p.FollowUpTopics,
		CreatedAt:           time.Now().UTC(),
	}
}
