package quizforge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Provider is the external generative service that produces quiz content and
// translations. Implementations are treated as unreliable: callers must parse
// and validate everything they return.
type Provider interface {
	// Generate returns the raw candidate quiz payload for a request.
	Generate(ctx context.Context, req GenerationRequest) (json.RawMessage, error)
	// Translate returns the texts translated into the target language,
	// expected (but not guaranteed) to be length- and order-preserving.
	Translate(ctx context.Context, texts []string, language string) ([]string, error)
}

// ProviderError wraps a network failure or a malformed provider payload.
type ProviderError struct {
	Op  string // "generate" or "translate"
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// OpenAIProvider implements Provider against the OpenAI chat completions API,
// using forced tool calls to get schema-constrained output.
type OpenAIProvider struct {
	client *openai.Client
	logger *LLMLogger
}

// NewOpenAIProvider creates a provider with the given API key.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey)}
}

// SetLogger attaches a transcript logger for all provider interactions.
func (p *OpenAIProvider) SetLogger(logger *LLMLogger) {
	p.logger = logger
}

// Generate asks the model for a candidate quiz and returns the raw tool-call
// arguments without interpreting them. Parsing and validation happen at the
// pipeline boundary.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerationRequest) (json.RawMessage, error) {
	VerboseLog("Requesting %d questions for topic: %s", req.NumQuestions, req.Topic)

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are an expert quiz generator. Produce high-quality quiz questions that follow every stated requirement exactly.",
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		},
	}

	if req.Document != nil {
		content, err := documentMessage(req.Document)
		if err != nil {
			return nil, &ProviderError{Op: "generate", Err: err}
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: content,
		})
	}

	if p.logger != nil {
		p.logger.LogLLMRequest("Generate", req.Prompt)
	}

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:    openai.GPT4o,
			Messages: messages,
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_quiz",
						Description: "Submit the generated quiz",
						Parameters:  req.Schema,
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_quiz",
				},
			},
		},
	)
	if err != nil {
		return nil, &ProviderError{Op: "generate", Err: err}
	}

	args, err := toolCallArguments(resp, "submit_quiz")
	if err != nil {
		return nil, &ProviderError{Op: "generate", Err: err}
	}

	if p.logger != nil {
		p.logger.LogLLMResponse("Generate", string(args))
	}

	return args, nil
}

// Translate asks the model to translate the given texts into the target
// language. The reply array is returned verbatim, never truncated or padded;
// enforcing the length/order contract is the caller's job.
func (p *OpenAIProvider) Translate(ctx context.Context, texts []string, language string) ([]string, error) {
	VerboseLog("Translating %d strings into %s", len(texts), language)

	payload, err := json.Marshal(map[string]any{"texts": texts, "language": language})
	if err != nil {
		return nil, &ProviderError{Op: "translate", Err: err}
	}

	prompt := fmt.Sprintf(
		"Translate every string in the texts array below into %s. "+
			"Return exactly one translation per input string, in the same order. "+
			"Use the submit_translations tool.\n\n%s",
		language, payload,
	)

	if p.logger != nil {
		p.logger.LogLLMRequest("Translate", prompt)
	}

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a precise translator. Preserve meaning, tone and formatting.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_translations",
						Description: "Submit the translated strings",
						Parameters: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"translations": map[string]any{
									"type": "array",
									"items": map[string]any{
										"type": "string",
									},
									"description": "One translation per input string, same order",
								},
							},
							"required": []any{"translations"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_translations",
				},
			},
		},
	)
	if err != nil {
		return nil, &ProviderError{Op: "translate", Err: err}
	}

	args, err := toolCallArguments(resp, "submit_translations")
	if err != nil {
		return nil, &ProviderError{Op: "translate", Err: err}
	}

	if p.logger != nil {
		p.logger.LogLLMResponse("Translate", string(args))
	}

	var toolArgs struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal(args, &toolArgs); err != nil {
		return nil, &ProviderError{Op: "translate", Err: fmt.Errorf("failed to parse tool arguments: %w", err)}
	}
	if toolArgs.Translations == nil {
		return nil, &ProviderError{Op: "translate", Err: fmt.Errorf("payload missing translations array")}
	}

	return toolArgs.Translations, nil
}

// toolCallArguments extracts the arguments of the expected forced tool call
// from a chat completion response.
func toolCallArguments(resp openai.ChatCompletionResponse, name string) (json.RawMessage, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != name {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}
	return json.RawMessage(toolCall.Function.Arguments), nil
}

// documentMessage renders an uploaded document as a user message. Plain text
// documents are decoded inline; binary documents are passed through base64
// with their media type, best effort.
func documentMessage(doc *DocumentPart) (string, error) {
	if doc.MediaType == "text/plain" {
		decoded, err := base64.StdEncoding.DecodeString(doc.Data)
		if err != nil {
			return "", fmt.Errorf("failed to decode document: %w", err)
		}
		return fmt.Sprintf("Source document (text/plain):\n\n%s", decoded), nil
	}
	return fmt.Sprintf("Source document (%s, base64-encoded):\n\n%s", doc.MediaType, doc.Data), nil
}
