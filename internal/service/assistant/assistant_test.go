package assistant_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/persona"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/assistant"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/calendar"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/session"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/tools"
)

type respondFunc func(history []*schema.Message, withTools bool) (*schema.Message, error)

// scriptedModel is a chat model whose replies are computed by respond.
type scriptedModel struct {
	mu      sync.Mutex
	respond respondFunc
	calls   int
	bound   []*schema.ToolInfo
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return m.generate(input, false)
}

func (m *scriptedModel) generate(input []*schema.Message, withTools bool) (*schema.Message, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.respond(input, withTools)
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.bound = infos
	return &boundModel{root: m}, nil
}

type boundModel struct{ root *scriptedModel }

func (b *boundModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return b.root.generate(input, true)
}

func (b *boundModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := b.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (b *boundModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return b.root.WithTools(infos)
}

// receptionist asks for availability of any ISO time it sees, then words
// the tool result in Gujarati.
func receptionist(history []*schema.Message, withTools bool) (*schema.Message, error) {
	last := history[len(history)-1]
	switch last.Role {
	case schema.User:
		start := strings.Fields(last.Content)[0]
		if withTools && strings.HasPrefix(start, "2026-") {
			return schema.AssistantMessage("", []schema.ToolCall{{
				ID:       "call-" + start,
				Function: schema.FunctionCall{Name: tools.CheckAvailability, Arguments: `{"start":"` + start + `"}`},
			}}), nil
		}
		return schema.AssistantMessage("નમસ્તે", nil), nil
	case schema.Tool:
		if strings.Contains(last.Content, "FREE") {
			return schema.AssistantMessage("હા, એ સમય ખાલી છે.", nil), nil
		}
		return schema.AssistantMessage("માફ કરશો, એ સમય વ્યસ્ત છે. 11:30 કેવું રહેશે?", nil), nil
	}
	return nil, errors.New("unexpected history")
}

type fixture struct {
	assistant *assistant.Assistant
	store     *session.Store
	scheduler *calendar.Scheduler
	model     *scriptedModel
}

func newFixture(t *testing.T, respond respondFunc, opts assistant.Options) fixture {
	t.Helper()

	scheduler := calendar.NewScheduler(calendar.NewMemoryProvider())
	dispatcher, err := tools.NewDispatcher(context.Background(), nil, tools.SchedulingTools(scheduler)...)
	require.NoError(t, err)

	store := session.NewStore(assistant.NewPromptBuilder(persona.Default()).Build, session.Options{})
	m := &scriptedModel{respond: respond}

	a, err := assistant.New(m, store, dispatcher, opts)
	require.NoError(t, err)

	return fixture{assistant: a, store: store, scheduler: scheduler, model: m}
}

func TestReplyWithoutTools(t *testing.T) {
	f := newFixture(t, receptionist, assistant.Options{})

	reply, err := f.assistant.Reply(context.Background(), "s1", "કેમ છો")
	require.NoError(t, err)
	assert.Equal(t, "નમસ્તે", reply)

	history, err := f.store.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, schema.System, history[0].Role)
	assert.Equal(t, schema.User, history[1].Role)
	assert.Equal(t, schema.Assistant, history[2].Role)
	assert.Len(t, f.model.bound, 4)
}

func TestFreeThenBusyScenario(t *testing.T) {
	f := newFixture(t, receptionist, assistant.Options{})
	ctx := context.Background()

	reply, err := f.assistant.Reply(ctx, "caller", "2026-02-24T11:00:00 ફ્રી છે?")
	require.NoError(t, err)
	assert.Equal(t, "હા, એ સમય ખાલી છે.", reply)

	history, err := f.store.History("caller")
	require.NoError(t, err)
	require.Len(t, history, 5)
	invocation, result := history[2], history[3]
	require.Len(t, invocation.ToolCalls, 1)
	assert.Equal(t, schema.Tool, result.Role)
	assert.Equal(t, invocation.ToolCalls[0].ID, result.ToolCallID)
	assert.Equal(t, "Slot 2026-02-24T11:00:00 is FREE.", result.Content)

	_, err = f.scheduler.Book(ctx, "2026-02-24T11:00:00", "")
	require.NoError(t, err)

	reply, err = f.assistant.Reply(ctx, "caller", "2026-02-24T11:00:00 ફ્રી છે?")
	require.NoError(t, err)
	assert.Contains(t, reply, "વ્યસ્ત")
	assert.Contains(t, reply, "11:30")
}

func TestSingleRoundUsesPlainModelForFollowUp(t *testing.T) {
	var sawPlain bool
	respond := func(history []*schema.Message, withTools bool) (*schema.Message, error) {
		if !withTools {
			sawPlain = true
			return schema.AssistantMessage("done", nil), nil
		}
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "again",
			Function: schema.FunctionCall{Name: tools.CheckAvailability, Arguments: `{"start":"2026-02-24T10:00:00"}`},
		}}), nil
	}
	f := newFixture(t, respond, assistant.Options{MaxToolRounds: 1})

	reply, err := f.assistant.Reply(context.Background(), "s", "anything")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.True(t, sawPlain)
	assert.Equal(t, 2, f.model.calls)
}

func TestBoundedToolRounds(t *testing.T) {
	respond := func(history []*schema.Message, withTools bool) (*schema.Message, error) {
		if !withTools {
			return schema.AssistantMessage("final", nil), nil
		}
		return schema.AssistantMessage("", []schema.ToolCall{{
			Function: schema.FunctionCall{Name: tools.CheckAvailability, Arguments: `{"start":"2026-02-24T10:00:00"}`},
		}}), nil
	}
	f := newFixture(t, respond, assistant.Options{MaxToolRounds: 3})

	reply, err := f.assistant.Reply(context.Background(), "s", "loop please")
	require.NoError(t, err)
	assert.Equal(t, "final", reply)
	assert.Equal(t, 4, f.model.calls, "three tool rounds plus the final plain call")

	history, _ := f.store.History("s")
	for i, msg := range history {
		if msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
			continue
		}
		for j, tc := range msg.ToolCalls {
			next := history[i+1+j]
			require.Equal(t, schema.Tool, next.Role)
			assert.Equal(t, tc.ID, next.ToolCallID)
			assert.NotEmpty(t, tc.ID)
		}
	}
}

func TestPlainModelStillCallingToolsIsDropped(t *testing.T) {
	respond := func(history []*schema.Message, withTools bool) (*schema.Message, error) {
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "x",
			Function: schema.FunctionCall{Name: tools.Cancel, Arguments: `{"start":"2026-02-24T10:00:00"}`},
		}}), nil
	}
	f := newFixture(t, respond, assistant.Options{Apology: "માફ કરશો"})

	reply, err := f.assistant.Reply(context.Background(), "s", "cancel")
	require.NoError(t, err)
	assert.Equal(t, "માફ કરશો", reply)

	history, _ := f.store.History("s")
	last := history[len(history)-1]
	assert.Empty(t, last.ToolCalls)
}

func TestFirstModelErrorIsReturned(t *testing.T) {
	f := newFixture(t, func([]*schema.Message, bool) (*schema.Message, error) {
		return nil, errors.New("model offline")
	}, assistant.Options{})

	_, err := f.assistant.Reply(context.Background(), "s", "hello")
	assert.ErrorContains(t, err, "model offline")
}

func TestFirstModelErrorClosesTurn(t *testing.T) {
	offline := true
	f := newFixture(t, func(history []*schema.Message, _ bool) (*schema.Message, error) {
		if offline {
			return nil, errors.New("model offline")
		}
		return schema.AssistantMessage("નમસ્તે", nil), nil
	}, assistant.Options{Apology: "માફ કરશો"})

	_, err := f.assistant.Reply(context.Background(), "s", "hello")
	require.Error(t, err)

	history, err := f.store.History("s")
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, schema.Assistant, last.Role)
	assert.Contains(t, last.Content, "માફ કરશો")
	assert.Contains(t, last.Content, "model offline")

	offline = false
	reply, err := f.assistant.Reply(context.Background(), "s", "again")
	require.NoError(t, err)
	assert.Equal(t, "નમસ્તે", reply)

	history, err = f.store.History("s")
	require.NoError(t, err)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i-1].Role == schema.User && history[i].Role == schema.User,
			"consecutive user messages at %d", i)
	}
}

func TestFollowUpModelErrorBecomesText(t *testing.T) {
	respond := func(history []*schema.Message, withTools bool) (*schema.Message, error) {
		if history[len(history)-1].Role == schema.Tool {
			return nil, errors.New("quota exceeded")
		}
		return schema.AssistantMessage("", []schema.ToolCall{{
			ID:       "c",
			Function: schema.FunctionCall{Name: tools.CheckAvailability, Arguments: `{"start":"2026-02-24T10:00:00"}`},
		}}), nil
	}
	f := newFixture(t, respond, assistant.Options{Apology: "માફ કરશો"})

	reply, err := f.assistant.Reply(context.Background(), "s", "10 વાગ્યે?")
	require.NoError(t, err)
	assert.Contains(t, reply, "માફ કરશો")
	assert.Contains(t, reply, "quota exceeded")
}

func TestEmptyInputRejected(t *testing.T) {
	f := newFixture(t, receptionist, assistant.Options{})

	_, err := f.assistant.Reply(context.Background(), "s", "   ")
	assert.ErrorIs(t, err, assistant.ErrEmptyInput)
	assert.Equal(t, 0, f.store.Len())
}

func TestTurnsForOneSessionAreSerialized(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		overlap bool
	)
	respond := func(history []*schema.Message, withTools bool) (*schema.Message, error) {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return schema.AssistantMessage("ok", nil), nil
	}
	f := newFixture(t, respond, assistant.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.assistant.Reply(context.Background(), "shared", "hi")
		}()
	}
	wg.Wait()

	assert.False(t, overlap, "turns for one session overlapped")
	history, _ := f.store.History("shared")
	assert.Len(t, history, 1+8*2)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t, receptionist, assistant.Options{})
	ctx := context.Background()

	_, err := f.assistant.Reply(ctx, "a", "પહેલું")
	require.NoError(t, err)
	_, err = f.assistant.Reply(ctx, "b", "બીજું")
	require.NoError(t, err)

	historyB, _ := f.store.History("b")
	for _, msg := range historyB {
		assert.NotEqual(t, "પહેલું", msg.Content)
	}
}

func TestPromptMentionsDateAndZone(t *testing.T) {
	prompt := assistant.NewPromptBuilder(persona.Default()).Build(time.Date(2026, 2, 23, 20, 0, 0, 0, time.UTC))

	assert.Contains(t, prompt, "2026-02-24", "date is taken in IST")
	assert.Contains(t, prompt, "Tuesday")
	assert.Contains(t, prompt, "Asia/Kolkata")
	assert.Contains(t, prompt, "Gujarati")
	assert.Contains(t, prompt, "check_availability")
}
