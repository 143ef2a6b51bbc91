package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/calendar"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/persona"
)

// PromptBuilder renders the system message for a new session.
type PromptBuilder struct {
	persona persona.Persona
}

func NewPromptBuilder(p persona.Persona) *PromptBuilder {
	return &PromptBuilder{persona: p}
}

// Build is a session.SystemPromptFunc.
func (b *PromptBuilder) Build(now time.Time) string {
	p := b.persona
	today := now.In(calendar.IST)

	return fmt.Sprintf(`You are %s, a helpful %s %s.

Persona:
- Tone: %s
- Always reply in %s, whatever language the caller uses.

Rules:
- %s

Calendar:
- Today is %s (%s). Use this date when the caller does not name one; resolve words like "tomorrow" from it.
- All times are Indian Standard Time (Asia/Kolkata, UTC+05:30). Never add a timezone offset.
- Pass times to tools as %s, for example %sT11:00:00.
- Tool results starting with ERROR describe a failure; explain it to the caller in %s and offer an alternative.`,
		p.Name,
		p.Language,
		p.Title,
		p.Tone,
		p.Language,
		strings.Join(p.Rules, "\n- "),
		today.Format("2006-01-02"),
		today.Weekday(),
		"YYYY-MM-DDTHH:MM:SS",
		today.Format("2006-01-02"),
		p.Language,
	)
}
