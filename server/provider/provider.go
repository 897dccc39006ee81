// Package provider adapts the hosted inference endpoint (AWS Bedrock) to the
// rest of the server. The adapter performs one Converse round trip per call
// and always returns a Result; provider failures are data, not errors.
package provider

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Outcome labels recorded for each provider call.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// unspecifiedError is reported when a failure carries no code and no message.
const unspecifiedError = "An unspecified error occurred"

// ConverseAPI is the subset of the bedrockruntime client used by the adapter.
// *bedrockruntime.Client satisfies it.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Result is the normalized outcome of a single inference call.
type Result struct {
	Success  bool
	Response string
	Error    string
	Model    string
}

// Recorder receives per-call outcome and latency. *metrics.Metrics implements it.
type Recorder interface {
	ObserveProviderCall(outcome string, duration time.Duration)
}
