package ai

import (
	"fmt"
	"strings"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai/tokencount"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// jsonInstruction pins every backend to the canonical reply shape.
const jsonInstruction = `Respond with ONLY a valid JSON object, no markdown fences, matching exactly:
{"answer": "your spoken answer", "experience_mentioned": ["..."], "key_technologies": ["..."], "follow_up_topics": ["..."]}`

// resumeCharLimit bounds how much resume text is embedded when the prompt
// exceeds its token budget.
const resumeCharLimit = 2000

// Prompt is the backend-neutral prompt pair adapters serialize into their
// wire format.
type Prompt struct {
	System  string
	History []domain.Message
	User    string
}

// PromptBuilder assembles prompts from an AnswerRequest and keeps them
// inside a token budget by shedding the oldest history turns first, then
// trimming resume context.
type PromptBuilder struct {
	counter *tokencount.Counter
	budget  int
}

// NewPromptBuilder builds a prompt builder with the given token budget.
// A budget <= 0 disables shedding.
func NewPromptBuilder(budget int) *PromptBuilder {
	return &PromptBuilder{counter: tokencount.NewCounter(), budget: budget}
}

// Build assembles the prompt for req.
func (b *PromptBuilder) Build(req domain.AnswerRequest) Prompt {
	roleType := req.RoleType
	if roleType == "" {
		roleType = domain.DefaultRoleType
	}

	var sys strings.Builder
	if req.Persona != "" {
		sys.WriteString(req.Persona)
	} else {
		fmt.Fprintf(&sys, "You are a confident %s interviewing for a new role. Answer in first person as the candidate, concise and conversational, the way you would speak aloud in an interview.", roleType)
	}
	sys.WriteString("\n\n")
	sys.WriteString(jsonInstruction)

	resume := ""
	if req.Context != nil {
		resume = strings.TrimSpace(req.Context.Resume)
	}

	history := lastTurns(req.History, domain.MaxHistoryTurns)

	// Shed context until the assembled prompt fits the budget.
	for {
		user := b.userPrompt(req.Question, resume, req.Context)
		if b.budget <= 0 || b.tokens(sys.String(), history, user, req.Model) <= b.budget {
			return Prompt{System: sys.String(), History: history, User: user}
		}
		if len(history) > 0 {
			history = history[1:]
			continue
		}
		if len(resume) > resumeCharLimit {
			resume = resume[:resumeCharLimit]
			continue
		}
		return Prompt{System: sys.String(), History: history, User: user}
	}
}

func (b *PromptBuilder) userPrompt(question, resume string, rc *domain.RequestContext) string {
	var u strings.Builder
	if resume != "" {
		u.WriteString("My background:\n")
		u.WriteString(resume)
		u.WriteString("\n\n")
	}
	if rc != nil && len(rc.PreviousAnswers) > 0 {
		u.WriteString("Points already covered in this interview:\n")
		for _, a := range rc.PreviousAnswers {
			u.WriteString("- ")
			u.WriteString(a)
			u.WriteString("\n")
		}
		u.WriteString("\n")
	}
	u.WriteString("Interview question: ")
	u.WriteString(question)
	return u.String()
}

func (b *PromptBuilder) tokens(system string, history []domain.Message, user, model string) int {
	total := b.counter.Count(system, model) + b.counter.Count(user, model)
	for _, m := range history {
		total += b.counter.Count(m.Content, model) + 4 // per-message framing overhead
	}
	return total
}

func lastTurns(history []domain.Message, n int) []domain.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
