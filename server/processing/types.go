// Package processing turns a validated task request into a prompt, sends it to
// the inference client and shapes the result.
package processing

import (
	"context"

	"github.com/teilomillet/taskgate/server/provider"
)

// Request is a validated, trimmed /process request.
// Templates see it as {{.Task}} and {{.Content}}.
type Request struct {
	Task    string
	Content string
}

// Response is the outcome of a successful call.
type Response struct {
	// Result is the model's reply text
	Result string

	// Model is the model identifier reported by the inference client
	Model string

	// TokensUsed approximates usage as the word count of the input content
	// plus the word count of the reply
	TokensUsed int
}

// Inference is the inference client used by the Processor.
// *provider.BedrockClient implements it.
type Inference interface {
	ProcessRequest(ctx context.Context, prompt string) provider.Result
}
