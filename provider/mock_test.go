package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kichat/model"
)

func newMock(t *testing.T, settings Settings) model.Provider {
	t.Helper()
	factory, ok := Lookup("mock")
	require.True(t, ok, "mock factory must be registered")
	return factory(model.NewProviderConfig("Mock"), settings)
}

func TestMockInitialize(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{})
	require.NoError(t, p.Initialize(ctx))
	assert.True(t, p.CheckHealth())
	assert.Equal(t, model.StatusActive, p.Config().Status)
	assert.Nil(t, p.Config().InitError)
}

func TestMockInitializeFailureRecorded(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{"fail_init": "401 unauthorized"})
	err := p.Initialize(ctx)
	require.Error(t, err)

	cfg := p.Config()
	assert.Equal(t, model.StatusError, cfg.Status)
	require.NotNil(t, cfg.InitError)
	assert.Equal(t, "401 unauthorized", cfg.InitError.Error())
	assert.False(t, p.CheckHealth())
}

func TestMockModels(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{})
	require.NoError(t, p.Initialize(ctx))

	models, err := p.Models(ctx)
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, "mock-small", models[0].ID)
	assert.Equal(t, "Mock", models[0].Provider)
	assert.True(t, models[0].SupportsStreaming)
}

func TestMockModelsOverride(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{"models": "a, b ,c"})
	require.NoError(t, p.Initialize(ctx))

	models, err := p.Models(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestMockModelsErrorIsNotEmptyList(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{"fail_models": "429 quota exceeded"})
	require.NoError(t, p.Initialize(ctx))

	models, err := p.Models(ctx)
	require.Error(t, err)
	assert.Nil(t, models)
}

func TestMockModelsBeforeInitialize(t *testing.T) {
	p := newMock(t, Settings{})

	_, err := p.Models(context.Background())
	assert.Error(t, err)
}

func TestMockStreamChat(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{})
	require.NoError(t, p.Initialize(ctx))

	var chunks []string
	err := p.StreamChat(ctx, model.ChatRequest{
		Model: "mock-small",
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "be terse"},
			{Role: model.RoleUser, Content: "hello there, this is a longer message"},
		},
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Greater(t, len(chunks), 1, "long replies stream in multiple chunks")
	var full string
	for _, c := range chunks {
		full += c
	}
	assert.Equal(t, "echo: hello there, this is a longer message", full)
}

func TestMockStreamChatCallbackError(t *testing.T) {
	ctx := context.Background()

	p := newMock(t, Settings{})
	require.NoError(t, p.Initialize(ctx))

	sentinel := errors.New("stop")
	err := p.StreamChat(ctx, model.ChatRequest{
		Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}},
	}, func(string) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestMockStreamChatCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newMock(t, Settings{})
	require.NoError(t, p.Initialize(context.Background()))

	err := p.StreamChat(ctx, model.ChatRequest{
		Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}},
	}, func(string) error {
		t.Fatal("callback must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistryTypes(t *testing.T) {
	types := Types()
	for _, want := range []string{"anthropic", "google", "mock", "ollama", "openai"} {
		assert.Contains(t, types, want)
	}
}
