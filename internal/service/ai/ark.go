package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/config"
)

// arkChatModel is the part of *ark.ChatModel the adapter relies on.
type arkChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
	Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error)
	BindTools(tools []*schema.ToolInfo) error
}

type arkBuilder func(ctx context.Context) (arkChatModel, error)

// ArkModel exposes an Ark chat model as a ToolCallingChatModel.
// BindTools mutates the underlying client, so every WithTools call binds
// onto a freshly built instance and the receiver stays tool-free.
type ArkModel struct {
	build arkBuilder
	inner arkChatModel
}

var _ model.ToolCallingChatModel = (*ArkModel)(nil)

// NewArkModel builds the tool-free Ark model from the AI config.
func NewArkModel(ctx context.Context, cfg config.AIConfig) (*ArkModel, error) {
	return newArkModel(ctx, func(ctx context.Context) (arkChatModel, error) {
		return cfg.NewArkChatModel(ctx)
	})
}

func newArkModel(ctx context.Context, build arkBuilder) (*ArkModel, error) {
	inner, err := build(ctx)
	if err != nil {
		return nil, err
	}
	return &ArkModel{build: build, inner: inner}, nil
}

func (m *ArkModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return m.inner.Generate(ctx, input, opts...)
}

func (m *ArkModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(ctx, input, opts...)
}

// WithTools returns a new model with tools bound; the receiver is unchanged.
func (m *ArkModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	inner, err := m.build(context.Background())
	if err != nil {
		return nil, fmt.Errorf("rebuild ark model: %w", err)
	}
	if err := inner.BindTools(tools); err != nil {
		return nil, fmt.Errorf("bind ark tools: %w", err)
	}
	return &ArkModel{build: m.build, inner: inner}, nil
}
