package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/auth/bearer"
	"github.com/teilomillet/taskgate/config"
	"go.uber.org/zap"
)

// bearerAuthScheme is the smithy auth scheme id for Bedrock API keys.
const bearerAuthScheme = "httpBearerAuth"

// BedrockClient sends prompts to a Bedrock model through the Converse API.
type BedrockClient struct {
	api      ConverseAPI
	modelID  string
	logger   *zap.Logger
	recorder Recorder
}

// NewBedrockClient builds a client for cfg.Region authenticated with the
// configured bearer token. The token is handed to the SDK and kept nowhere else.
func NewBedrockClient(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	token := cfg.BearerToken
	api := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.BearerAuthTokenProvider = bearer.StaticTokenProvider{Token: bearer.Token{Value: token}}
		o.AuthSchemePreference = []string{bearerAuthScheme}
	})

	logger.Info("bedrock client initialized",
		zap.String("region", cfg.Region),
		zap.String("model", cfg.ModelID),
	)
	return NewBedrockClientWithAPI(api, cfg.ModelID, logger), nil
}

// NewBedrockClientWithAPI wraps an existing ConverseAPI implementation.
func NewBedrockClientWithAPI(api ConverseAPI, modelID string, logger *zap.Logger) *BedrockClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BedrockClient{
		api:     api,
		modelID: modelID,
		logger:  logger,
	}
}

// WithMetrics attaches a recorder and returns the client.
func (c *BedrockClient) WithMetrics(r Recorder) *BedrockClient {
	c.recorder = r
	return c
}

// Model returns the configured model identifier.
func (c *BedrockClient) Model() string {
	return c.modelID
}

// ProcessRequest sends prompt as a single user message and returns the text of
// the first content block of the reply. It never panics and never returns an
// error; failures are reported through Result.
func (c *BedrockClient) ProcessRequest(ctx context.Context, prompt string) (res Result) {
	start := time.Now()
	res = Result{Model: c.modelID}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Model: c.modelID, Error: fmt.Sprintf("%v", r)}
		}
		c.observe(res, time.Since(start))
	}()

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
	})
	if err != nil {
		res.Error = describeError(err)
		return res
	}

	text, err := firstText(out)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.Response = text
	return res
}

func (c *BedrockClient) observe(res Result, d time.Duration) {
	outcome := OutcomeSuccess
	if res.Success {
		c.logger.Info("bedrock request succeeded",
			zap.String("model", c.modelID),
			zap.Duration("duration", d),
		)
	} else {
		outcome = OutcomeFailure
		c.logger.Error("bedrock request failed",
			zap.String("model", c.modelID),
			zap.String("error", res.Error),
			zap.Duration("duration", d),
		)
	}
	if c.recorder != nil {
		c.recorder.ObserveProviderCall(outcome, d)
	}
}

// firstText extracts the text of the first content block of the output message.
func firstText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil || out.Output == nil {
		return "", errors.New("response is missing output")
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected output type %T", out.Output)
	}
	if len(msg.Value.Content) == 0 {
		return "", errors.New("response message has no content")
	}
	block, ok := msg.Value.Content[0].(*types.ContentBlockMemberText)
	if !ok {
		return "", fmt.Errorf("first content block is %T, not text", msg.Value.Content[0])
	}
	return block.Value, nil
}

// describeError renders a provider failure as "Code: Message" when the
// failure is a structured API error.
func describeError(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code, msg := apiErr.ErrorCode(), apiErr.ErrorMessage()
		switch {
		case code == "" && msg == "":
			return unspecifiedError
		case code == "":
			return msg
		case msg == "":
			return code
		}
		return fmt.Sprintf("%s: %s", code, msg)
	}
	if s := err.Error(); s != "" {
		return s
	}
	return unspecifiedError
}
