package interview

import (
	_ "embed"
	"strings"

	"github.com/spigell/hh-interviewer/internal/ai"
)

//go:embed system_prompt.md
var systemPromptTemplate string

const jobDescriptionPlaceholder = "{{JOB_DESCRIPTION}}"

// Session is one candidate conversation. It is a value: advancing it yields a new Session and
// leaves the previous one untouched.
type Session struct {
	CandidateID string

	transcript  []ai.Message
	totalTokens int
}

// NewSession starts a conversation seeded with the interviewer system prompt for the job
// description as it is at this moment.
func NewSession(candidateID, jobDescription string) Session {
	return Session{
		CandidateID: candidateID,
		transcript: []ai.Message{{
			Role:    ai.RoleSystem,
			Content: SystemPrompt(jobDescription),
		}},
	}
}

// SystemPrompt renders the interviewer instruction for a job description.
func SystemPrompt(jobDescription string) string {
	return strings.TrimSpace(strings.ReplaceAll(systemPromptTemplate, jobDescriptionPlaceholder, jobDescription))
}

// Transcript returns a copy of the conversation so far.
func (s Session) Transcript() []ai.Message {
	out := make([]ai.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s Session) TotalTokens() int { return s.totalTokens }

func (s Session) Len() int { return len(s.transcript) }

// Bound reports whether the session was created with a system prompt.
func (s Session) Bound() bool {
	return len(s.transcript) > 0 && s.transcript[0].Role == ai.RoleSystem
}

func (s Session) with(msgs ...ai.Message) Session {
	next := make([]ai.Message, 0, len(s.transcript)+len(msgs))
	next = append(next, s.transcript...)
	next = append(next, msgs...)

	return Session{
		CandidateID: s.CandidateID,
		transcript:  next,
		totalTokens: s.totalTokens,
	}
}
