package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const (
	CheckAvailability = "check_availability"
	Book              = "book"
	Cancel            = "cancel"
	Reschedule        = "reschedule"
)

// Scheduler is the set of scheduling operations exposed to the model.
type Scheduler interface {
	CheckAvailability(ctx context.Context, start string) (string, error)
	Book(ctx context.Context, start, summary string) (string, error)
	Cancel(ctx context.Context, start string) (string, error)
	Reschedule(ctx context.Context, oldStart, newStart string) (string, error)
}

// arguments is the union of every scheduling tool's parameters.
type arguments struct {
	Start    string `json:"start"`
	Summary  string `json:"summary"`
	OldStart string `json:"old_start"`
	NewStart string `json:"new_start"`
}

type schedulingTool struct {
	info     *schema.ToolInfo
	required []string
	run      func(ctx context.Context, args arguments) (string, error)
}

func (t *schedulingTool) Info(context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *schedulingTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args arguments
	raw := strings.TrimSpace(argumentsInJSON)
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.info.Name, err)
	}

	values := map[string]string{
		"start":     args.Start,
		"old_start": args.OldStart,
		"new_start": args.NewStart,
	}
	for _, name := range t.required {
		if strings.TrimSpace(values[name]) == "" {
			return "", fmt.Errorf("invalid arguments for %s: %s is required", t.info.Name, name)
		}
	}

	return t.run(ctx, args)
}

const civilHint = "ISO-8601 local date-time without offset, for example 2026-02-24T11:00:00 (IST)"

// SchedulingTools exposes s as model-invocable tools.
func SchedulingTools(s Scheduler) []tool.InvokableTool {
	start := &schema.ParameterInfo{Type: schema.String, Desc: "Start of the 30-minute slot, " + civilHint, Required: true}

	return []tool.InvokableTool{
		&schedulingTool{
			info: &schema.ToolInfo{
				Name:        CheckAvailability,
				Desc:        "Check whether the 30-minute slot starting at the given time is free in the calendar.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{"start": start}),
			},
			required: []string{"start"},
			run: func(ctx context.Context, args arguments) (string, error) {
				return s.CheckAvailability(ctx, args.Start)
			},
		},
		&schedulingTool{
			info: &schema.ToolInfo{
				Name: Book,
				Desc: "Book a 30-minute appointment. Always check availability first.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"start":   start,
					"summary": {Type: schema.String, Desc: "Short title for the appointment, for example the caller's name."},
				}),
			},
			required: []string{"start"},
			run: func(ctx context.Context, args arguments) (string, error) {
				return s.Book(ctx, args.Start, args.Summary)
			},
		},
		&schedulingTool{
			info: &schema.ToolInfo{
				Name:        Cancel,
				Desc:        "Cancel the appointment that starts at the given time.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{"start": start}),
			},
			required: []string{"start"},
			run: func(ctx context.Context, args arguments) (string, error) {
				return s.Cancel(ctx, args.Start)
			},
		},
		&schedulingTool{
			info: &schema.ToolInfo{
				Name: Reschedule,
				Desc: "Move an existing appointment to a new 30-minute slot if the new slot is free.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"old_start": {Type: schema.String, Desc: "Current start of the appointment, " + civilHint, Required: true},
					"new_start": {Type: schema.String, Desc: "Requested new start, " + civilHint, Required: true},
				}),
			},
			required: []string{"old_start", "new_start"},
			run: func(ctx context.Context, args arguments) (string, error) {
				return s.Reschedule(ctx, args.OldStart, args.NewStart)
			},
		},
	}
}
