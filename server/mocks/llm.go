package mocks

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/teilomillet/taskgate/server/provider"
)

// MockConverseAPI stands in for the Bedrock runtime client.
// It records every ConverseInput it receives.
//
// Example usage:
//
//	api := NewMockConverseAPI(func(ctx context.Context, in *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
//	    return TextOutput("mocked response"), nil
//	})
type MockConverseAPI struct {
	ConverseFunc func(context.Context, *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error)

	mu     sync.Mutex
	inputs []*bedrockruntime.ConverseInput
}

// NewMockConverseAPI creates a mock. If converseFunc is nil, Converse
// returns an empty output with no error.
func NewMockConverseAPI(converseFunc func(context.Context, *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error)) *MockConverseAPI {
	return &MockConverseAPI{ConverseFunc: converseFunc}
}

// Converse implements provider.ConverseAPI.
func (m *MockConverseAPI) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, params)
	m.mu.Unlock()

	if m.ConverseFunc != nil {
		return m.ConverseFunc(ctx, params)
	}
	return &bedrockruntime.ConverseOutput{}, nil
}

// Inputs returns the inputs received so far.
func (m *MockConverseAPI) Inputs() []*bedrockruntime.ConverseInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*bedrockruntime.ConverseInput, len(m.inputs))
	copy(out, m.inputs)
	return out
}

// TextOutput builds a Converse output whose message holds one text block.
func TextOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
			},
		},
	}
}

// MockInference implements processing.Inference with a configurable function
// and records the prompts it was called with.
type MockInference struct {
	ProcessFunc func(ctx context.Context, prompt string) provider.Result
	ModelID     string

	mu      sync.Mutex
	prompts []string
}

// NewMockInference returns a mock that always succeeds with response.
func NewMockInference(response string) *MockInference {
	m := &MockInference{ModelID: "mock-model"}
	m.ProcessFunc = func(ctx context.Context, prompt string) provider.Result {
		return provider.Result{Success: true, Response: response, Model: m.ModelID}
	}
	return m
}

// NewFailingInference returns a mock that always fails with errText.
func NewFailingInference(errText string) *MockInference {
	m := &MockInference{ModelID: "mock-model"}
	m.ProcessFunc = func(ctx context.Context, prompt string) provider.Result {
		return provider.Result{Error: errText, Model: m.ModelID}
	}
	return m
}

// ProcessRequest records prompt and delegates to ProcessFunc.
func (m *MockInference) ProcessRequest(ctx context.Context, prompt string) provider.Result {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, prompt)
	}
	return provider.Result{Success: true, Model: m.ModelID}
}

// Model returns the mock's model identifier.
func (m *MockInference) Model() string {
	return m.ModelID
}

// Prompts returns every prompt received so far.
func (m *MockInference) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
