package openaigw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"cyberguard/internal/bootstrap/config"
	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
	"cyberguard/internal/ports"
)

const supportSystemPrompt = `You are CyberGuard Support, an empathetic and calm AI assistant for cybercrime victims.
Your goal is to reduce panic, provide step-by-step practical advice, and encourage reporting to official channels.
You are NOT a lawyer or a therapist, but a supportive guidance assistant.
Keep a professional yet warm tone.
If the user is in immediate distress, guide them to the nearest police station or official helpline.`

// Gateway implements ports.Analyzer against any OpenAI-compatible chat
// completion endpoint. It owns prompt construction and verdict decoding;
// nothing else in the system interprets model output.
type Gateway struct {
	client  openai.Client
	model   string
	timeout time.Duration

	websiteSchema    string
	transcriptSchema string
}

var _ ports.Analyzer = (*Gateway)(nil)

func NewGateway(cfg config.AnalysisConfig) (*Gateway, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("analysis.model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	websiteSchema, err := reflectSchema(&threat.WebsiteVerdict{})
	if err != nil {
		return nil, errs.Wrap(err, "reflect website verdict schema")
	}
	transcriptSchema, err := reflectSchema(&threat.TranscriptVerdict{})
	if err != nil {
		return nil, errs.Wrap(err, "reflect transcript verdict schema")
	}

	return &Gateway{
		client:           openai.NewClient(opts...),
		model:            cfg.Model,
		timeout:          timeout,
		websiteSchema:    websiteSchema,
		transcriptSchema: transcriptSchema,
	}, nil
}

func (g *Gateway) AnalyzeWebsite(ctx context.Context, url string) (threat.WebsiteVerdict, error) {
	if ctx == nil {
		return threat.WebsiteVerdict{}, errors.New("context is required")
	}
	if strings.TrimSpace(url) == "" {
		return threat.WebsiteVerdict{}, errors.New("url is required")
	}

	prompt := fmt.Sprintf(
		"Analyze this website URL for potential phishing or scam indicators: %s.\n"+
			"Consider URL structure, common phishing keywords, and typical malicious patterns.\n"+
			"Respond with a single JSON object matching this schema:\n%s",
		url, g.websiteSchema,
	)

	raw, err := g.completeJSON(ctx, prompt)
	if err != nil {
		return threat.WebsiteVerdict{}, err
	}

	var verdict threat.WebsiteVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return threat.WebsiteVerdict{}, errs.Wrap(err, "decode website verdict")
	}
	if err := threat.ValidateWebsiteVerdict(verdict); err != nil {
		return threat.WebsiteVerdict{}, errs.Wrap(err, "validate website verdict")
	}
	return verdict, nil
}

func (g *Gateway) AnalyzeTranscript(ctx context.Context, transcript string) (threat.TranscriptVerdict, error) {
	if ctx == nil {
		return threat.TranscriptVerdict{}, errors.New("context is required")
	}
	if strings.TrimSpace(transcript) == "" {
		return threat.TranscriptVerdict{}, errors.New("transcript is required")
	}

	prompt := fmt.Sprintf(
		"Analyze this transcript of an audio call for scam indicators: %q.\n"+
			"Look for urgency, manipulation, requests for sensitive info, or known scam scripts (e.g., tech support, bank fraud, lottery).\n"+
			"Respond with a single JSON object matching this schema:\n%s",
		transcript, g.transcriptSchema,
	)

	raw, err := g.completeJSON(ctx, prompt)
	if err != nil {
		return threat.TranscriptVerdict{}, err
	}

	var verdict threat.TranscriptVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return threat.TranscriptVerdict{}, errs.Wrap(err, "decode transcript verdict")
	}
	if err := threat.ValidateTranscriptVerdict(verdict); err != nil {
		return threat.TranscriptVerdict{}, errs.Wrap(err, "validate transcript verdict")
	}
	return verdict, nil
}

func (g *Gateway) ChatReply(ctx context.Context, message string, history []threat.ChatTurn) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if strings.TrimSpace(message) == "" {
		return "", errors.New("message is required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(supportSystemPrompt))
	for _, turn := range history {
		switch turn.Role {
		case threat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		case threat.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		default:
			return "", fmt.Errorf("invalid chat role %q", string(turn.Role))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", errs.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return content, nil
}

func (g *Gateway) completeJSON(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", errs.Wrap(err, "analysis completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("analysis completion returned no choices")
	}

	raw := StripCodeFence(resp.Choices[0].Message.Content)
	if raw == "" {
		return "", errors.New("analysis completion returned empty content")
	}
	return raw, nil
}

// StripCodeFence unwraps a ```json ... ``` block when a model ignores the JSON
// response mode and fences its answer anyway.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func reflectSchema(value any) (string, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	raw, err := json.Marshal(reflector.Reflect(value))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
