package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/config"
)

// LangchainModel adapts a langchaingo model to eino's tool-calling chat model.
type LangchainModel struct {
	llm   llms.Model
	tools []llms.Tool
}

var _ model.ToolCallingChatModel = (*LangchainModel)(nil)

// NewOpenAICompatible targets any OpenAI-compatible endpoint (OpenAI, Gemini, OpenRouter).
func NewOpenAICompatible(cfg config.AIConfig) (*LangchainModel, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.OpenAIKey),
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithModel(cfg.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewLangchainModel(llm), nil
}

func NewLangchainModel(llm llms.Model) *LangchainModel {
	return &LangchainModel{llm: llm}
}

// Generate converts the history, calls the model and converts the first choice back.
func (m *LangchainModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	messages, err := toLangchainMessages(input)
	if err != nil {
		return nil, err
	}

	resp, err := m.llm.GenerateContent(ctx, messages, m.callOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	return fromLangchainChoice(resp.Choices[0]), nil
}

// Stream yields the whole reply as a single chunk.
func (m *LangchainModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools returns a copy bound to the given tool schemas.
func (m *LangchainModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	converted := make([]llms.Tool, 0, len(infos))
	for _, info := range infos {
		tool, err := toLangchainTool(info)
		if err != nil {
			return nil, err
		}
		converted = append(converted, tool)
	}
	return &LangchainModel{llm: m.llm, tools: converted}, nil
}

func (m *LangchainModel) callOptions(opts []model.Option) []llms.CallOption {
	common := model.GetCommonOptions(&model.Options{}, opts...)

	callOpts := make([]llms.CallOption, 0, 4)
	if len(m.tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(m.tools))
	}
	if common.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(float64(*common.Temperature)))
	}
	if common.MaxTokens != nil {
		callOpts = append(callOpts, llms.WithMaxTokens(*common.MaxTokens))
	}
	if len(common.Stop) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(common.Stop))
	}
	return callOpts
}

func toLangchainTool(info *schema.ToolInfo) (llms.Tool, error) {
	var params any = map[string]any{"type": "object", "properties": map[string]any{}}
	if info.ParamsOneOf != nil {
		js, err := info.ParamsOneOf.ToJSONSchema()
		if err != nil {
			return llms.Tool{}, fmt.Errorf("convert %s parameters: %w", info.Name, err)
		}
		if js != nil {
			params = js
		}
	}

	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        info.Name,
			Description: info.Desc,
			Parameters:  params,
		},
	}, nil
}

func toLangchainMessages(input []*schema.Message) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(input))

	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case schema.User:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case schema.Assistant:
			content := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				content.Parts = append(content.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				content.Parts = append(content.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			out = append(out, content)
		case schema.Tool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.ToolName,
					Content:    msg.Content,
				}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	return out, nil
}

func fromLangchainChoice(choice *llms.ContentChoice) *schema.Message {
	msg := &schema.Message{
		Role:         schema.Assistant,
		Content:      choice.Content,
		ResponseMeta: &schema.ResponseMeta{FinishReason: choice.StopReason},
	}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      tc.FunctionCall.Name,
				Arguments: tc.FunctionCall.Arguments,
			},
		})
	}
	return msg
}
