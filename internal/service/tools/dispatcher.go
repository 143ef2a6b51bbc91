package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/metrics"
)

// Dispatcher routes model tool calls to registered tools by name.
type Dispatcher struct {
	tools   map[string]tool.InvokableTool
	infos   []*schema.ToolInfo
	metrics *metrics.Metrics
}

// NewDispatcher registers tools in the given order. Duplicate names are rejected.
func NewDispatcher(ctx context.Context, m *metrics.Metrics, registered ...tool.InvokableTool) (*Dispatcher, error) {
	d := &Dispatcher{
		tools:   make(map[string]tool.InvokableTool, len(registered)),
		infos:   make([]*schema.ToolInfo, 0, len(registered)),
		metrics: m,
	}

	for _, t := range registered {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("read tool info: %w", err)
		}
		if _, dup := d.tools[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", info.Name)
		}
		d.tools[info.Name] = t
		d.infos = append(d.infos, info)
	}

	return d, nil
}

// Infos returns the schemas to bind to the chat model.
func (d *Dispatcher) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, len(d.infos))
	copy(infos, d.infos)
	return infos
}

// Dispatch runs every tool call on call sequentially and returns one tool
// message per call, in order, carrying the call's correlation id. Calls the
// model sent without an id get one assigned on call itself so the assistant
// message and its results stay paired. Failures become payload text.
func (d *Dispatcher) Dispatch(ctx context.Context, call *schema.Message) []*schema.Message {
	results := make([]*schema.Message, 0, len(call.ToolCalls))

	for i := range call.ToolCalls {
		tc := &call.ToolCalls[i]
		if tc.ID == "" {
			tc.ID = uuid.NewString()
		}
		if tc.Type == "" {
			tc.Type = "function"
		}

		name := tc.Function.Name
		payload := d.invoke(ctx, name, tc.Function.Arguments)
		results = append(results, schema.ToolMessage(payload, tc.ID, schema.WithToolName(name)))
	}

	return results
}

func (d *Dispatcher) invoke(ctx context.Context, name, args string) string {
	t, ok := d.tools[name]
	if !ok {
		slog.Warn("model requested unknown tool", "tool", name)
		d.metrics.ToolCall(name, "unknown")
		return "ERROR: tool not found: " + name
	}

	result, err := t.InvokableRun(ctx, args)
	if err != nil {
		slog.Warn("tool failed", "tool", name, "args", args, "err", err)
		d.metrics.ToolCall(name, "error")
		return "ERROR: " + err.Error()
	}

	slog.Info("tool executed", "tool", name, "args", args, "result", result)
	d.metrics.ToolCall(name, "ok")
	return result
}
