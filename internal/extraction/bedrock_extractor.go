package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

// BedrockExtractor is the legacy three-call strategy: sender, websites, and
// offerings are extracted by independent focused prompts against the same
// cleaned text, issued concurrently, and merged into one ParsedEmail. It
// predates the single-prompt extractor and stays available behind the same
// interface for deployments that keep all data inside AWS.
type BedrockExtractor struct {
	client  *bedrockruntime.Client
	modelID string

	maxRetries  int
	backoffBase time.Duration
}

// bedrockMessage is a message in Bedrock's Anthropic format.
type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockExtractor creates the legacy extractor using the default AWS
// credential chain.
func NewBedrockExtractor(cfg config.ExtractionConfig) (*BedrockExtractor, error) {
	region := cfg.Bedrock.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	modelID := cfg.Bedrock.ModelID
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.BackoffBaseMS) * time.Millisecond
	if backoff == 0 {
		backoff = 500 * time.Millisecond
	}

	return &BedrockExtractor{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		modelID:     modelID,
		maxRetries:  maxRetries,
		backoffBase: backoff,
	}, nil
}

// Extract fans out the three focused prompts concurrently and merges the
// results. Any sub-call failing after its retry budget fails the whole
// extraction: a partial record would look like low confidence rather than
// like an error, which is worse.
func (e *BedrockExtractor) Extract(ctx context.Context, emailBody, senderEmail, subject string) (*domain.ParsedEmail, error) {
	userText := buildUserPrompt(emailBody, senderEmail, subject)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		callErr error

		sender    rawSender
		websites  struct {
			Websites []rawWebsite `json:"websites"`
		}
		offerings struct {
			Offerings         []rawOffering `json:"offerings"`
			OverallConfidence float64       `json:"overall_confidence"`
			MissingFields     []string      `json:"missing_fields"`
		}
	)

	run := func(prompt string, out any) {
		defer wg.Done()
		text, err := e.completeWithRetry(ctx, prompt, userText)
		if err == nil {
			err = json.Unmarshal([]byte(stripJSONFences(text)), out)
		}
		if err != nil {
			mu.Lock()
			if callErr == nil {
				callErr = err
			}
			mu.Unlock()
		}
	}

	wg.Add(3)
	go run(senderPrompt, &sender)
	go run(websitesPrompt, &websites)
	go run(offeringsPrompt, &offerings)
	wg.Wait()

	if callErr != nil {
		return nil, fmt.Errorf("bedrock extraction: %w", callErr)
	}

	raw := rawParsedEmail{
		Sender:            sender,
		Websites:          websites.Websites,
		Offerings:         offerings.Offerings,
		OverallConfidence: offerings.OverallConfidence,
		MissingFields:     offerings.MissingFields,
	}
	if raw.OverallConfidence == 0 {
		// Older prompt revisions scored only the sub-calls; fall back to
		// the mean of the per-concern confidences.
		raw.OverallConfidence = meanConfidence(sender, websites.Websites, offerings.Offerings)
	}

	return coerce(&raw, senderEmail, "bedrock_multi_call"), nil
}

func (e *BedrockExtractor) completeWithRetry(ctx context.Context, system, userText string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.backoffBase * time.Duration(1<<(attempt-1))
			log.Printf("[extraction] bedrock attempt %d/%d after %v: %v", attempt+1, e.maxRetries, backoff, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := e.complete(ctx, system, userText)
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("after %d attempts: %w", e.maxRetries, lastErr)
}

func (e *BedrockExtractor) complete(ctx context.Context, system, userText string) (string, error) {
	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           system,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: userText}}},
		},
		Temperature: 0.1,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", fmt.Errorf("Bedrock API error: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	return text, nil
}

func meanConfidence(sender rawSender, websites []rawWebsite, offerings []rawOffering) float64 {
	sum, n := sender.Confidence, 1
	for _, w := range websites {
		sum += w.Confidence
		n++
	}
	for _, o := range offerings {
		sum += o.Confidence
		n++
	}
	return sum / float64(n)
}
