package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/logger"
)

const (
	defaultModel = "gemini-1.5-flash"

	temperature float32 = 0.7

	maxRetries = 3
)

// GeminiClient implements Client on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient dials the Gemini API. The model name falls back to the
// default when empty.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, apierror.New(apierror.KindServiceMisconfigured, "completion service API key is not configured")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apierror.Wrap(apierror.KindServiceMisconfigured, "failed to create completion client", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Complete sends the prompt and returns the concatenated text parts of the
// first candidate. Transient failures are retried with backoff; quota and
// credential failures are classified and returned immediately.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(temperature)

	var text string
	operation := func() error {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			if classified := classifyCompletionError(err); classified != nil {
				return backoff.Permanent(classified)
			}
			logger.Warn("completion call failed, retrying", zap.Error(err))
			return err
		}

		text = extractText(resp)
		if text == "" {
			return backoff.Permanent(apierror.New(apierror.KindUnknown, "completion service returned an empty response"))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			return "", apiErr
		}
		return "", apierror.Wrap(apierror.KindUnknown, "completion service is unavailable", err)
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	return sb.String()
}

// classifyCompletionError returns a taxonomy error for failures that must
// not be retried, or nil for transient ones.
func classifyCompletionError(err error) error {
	message := strings.ToLower(err.Error())

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 429:
			return apierror.Wrap(apierror.KindUpstreamQuotaExceeded, "completion service quota exceeded", err)
		case gerr.Code == 401 || gerr.Code == 403:
			return apierror.Wrap(apierror.KindServiceMisconfigured, "completion service rejected credentials", err)
		case gerr.Code >= 400 && gerr.Code < 500:
			return apierror.Wrap(apierror.KindUnknown, "completion request rejected", err)
		}
		return nil // 5xx: transient
	}

	switch {
	case strings.Contains(message, "quota") || strings.Contains(message, "rate limit") || strings.Contains(message, "resource exhausted"):
		return apierror.Wrap(apierror.KindUpstreamQuotaExceeded, "completion service quota exceeded", err)
	case strings.Contains(message, "api key not valid") || strings.Contains(message, "invalid api key") || strings.Contains(message, "unauthenticated"):
		return apierror.Wrap(apierror.KindServiceMisconfigured, "completion service rejected credentials", err)
	}
	return nil
}
