package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// Payload is the JSON shape adapters request from every backend.
type Payload struct {
	Answer              string   `json:"answer"`
	ExperienceMentioned []string `json:"experience_mentioned"`
	KeyTechnologies     []string `json:"key_technologies"`
	FollowUpTopics      []string `json:"follow_up_topics"`
}

// degradedAnswerLimit caps how much raw model text is carried into a
// degraded answer when the reply could not be parsed as JSON.
const degradedAnswerLimit = 500

// ResponseCleaner extracts and repairs the JSON object LLMs return, which
// frequently arrives fenced, prefixed with prose, or mildly malformed.
type ResponseCleaner struct{}

// NewResponseCleaner creates a response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// Decode turns raw model output into a Payload. A reply that cannot be
// repaired into valid JSON degrades to a truncated plain-text answer with
// empty structured fields; ok reports whether structured parsing
// succeeded. A malformed-but-present response beats no response.
func (rc *ResponseCleaner) Decode(raw string) (p Payload, ok bool) {
	cleaned := rc.Clean(raw)
	if err := json.Unmarshal([]byte(cleaned), &p); err == nil && strings.TrimSpace(p.Answer) != "" {
		p.ExperienceMentioned = ensureSlice(p.ExperienceMentioned)
		p.KeyTechnologies = ensureSlice(p.KeyTechnologies)
		p.FollowUpTopics = ensureSlice(p.FollowUpTopics)
		return p, true
	}
	answer := truncate(strings.TrimSpace(raw), degradedAnswerLimit)
	if answer == "" {
		// A blank reply must still yield a usable answer.
		answer = domain.FallbackAnswer
	}
	return Payload{
		Answer:              answer,
		ExperienceMentioned: []string{},
		KeyTechnologies:     []string{},
		FollowUpTopics:      []string{},
	}, false
}

// Clean runs the repair pipeline: strip markdown fences, extract the JSON
// object from surrounding prose, then fix common formatting defects.
func (rc *ResponseCleaner) Clean(raw string) string {
	s := rc.stripFences(raw)
	s = rc.extractObject(s)
	if json.Valid([]byte(s)) {
		return s
	}
	return rc.repair(s)
}

func (rc *ResponseCleaner) stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the first balanced {...} object in s, so prose
// before or after the JSON does not break decoding.
func (rc *ResponseCleaner) extractObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

var (
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// repair fixes defects small models produce: trailing commas, unquoted
// keys, single-quoted strings.
func (rc *ResponseCleaner) repair(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2":`)
	if !json.Valid([]byte(s)) {
		s = strings.ReplaceAll(s, "'", `"`)
	}
	return s
}

func ensureSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
