package generators

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/debugs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/nets"
	"github.com/reusee/taicell/vars"
)

var (
	debugOpenAI     = cmds.Switch("-debug-openai")
	tapOpenAI       = cmds.Switch("-tap-openai")
	temperatureFlag = cmds.Var[float32]("-temperature")
)

type OpenAI struct {
	args   GeneratorArgs
	apiKey string
	client nets.HTTPClient

	Logger dscope.Inject[logs.Logger]
	Tap    dscope.Inject[debugs.Tap]
}

var _ Generator = new(OpenAI)

func (o *OpenAI) Args() GeneratorArgs {
	return o.args
}

func (o *OpenAI) Generate(ctx context.Context, prompts Prompts) (string, error) {
	messages := promptsToOpenAIMessages(prompts)

	temperature := float32(0)
	if o.args.Temperature != nil {
		temperature = *o.args.Temperature
	}
	if *temperatureFlag != 0 {
		temperature = *temperatureFlag
	}

	if *debugOpenAI {
		jsonText, err := json.Marshal(messages)
		if err != nil {
			return "", err
		}
		o.Logger().InfoContext(ctx, "open ai messages to send",
			"messages", jsonText,
		)
	}

	if *tapOpenAI {
		o.Tap()(ctx, "before chat completion", map[string]any{
			"messages": messages,
			"args":     o.args,
		})
	}

	req := ChatCompletionRequest{
		Model:               o.args.Model,
		Messages:            messages,
		Stream:              true,
		MaxCompletionTokens: vars.DerefOrZero(o.args.MaxGenerateTokens),
		Temperature:         temperature,
	}
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	return doWithRetry(ctx, o.Logger(), func() (string, error) {
		o.Logger().InfoContext(ctx, "generating",
			"model", o.args.Model,
		)
		return o.stream(ctx, req, bodyBytes)
	})
}

func (o *OpenAI) stream(ctx context.Context, req ChatCompletionRequest, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", strings.TrimSuffix(o.args.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", OpenAIError{
			Err:     err,
			Request: req,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == nil {
			err := fmt.Errorf("bad status: %d, body: %s", resp.StatusCode, string(body))
			if retryableStatus(resp.StatusCode) {
				return "", errors.Join(err, ErrRetryable)
			}
			return "", OpenAIError{
				Err:     err,
				Request: req,
			}
		}
		errResp.Error.HTTPStatusCode = resp.StatusCode
		if retryableStatus(resp.StatusCode) {
			return "", errors.Join(errResp.Error, ErrRetryable)
		}
		return "", OpenAIError{
			Err:     errResp.Error,
			Request: req,
		}
	}

	output := new(strings.Builder)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*K), 4*M)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "data: [DONE]") {
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := line[6:]

		var streamResp ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
			return "", fmt.Errorf("error unmarshalling stream response: %w", err)
		}
		if *debugOpenAI {
			o.Logger().InfoContext(ctx, "OpenAI response",
				"details", streamResp,
			)
		}
		if len(streamResp.Choices) == 0 {
			continue
		}

		choice := streamResp.Choices[0]
		output.WriteString(choice.Delta.Content)
		if choice.FinishReason == "error" {
			return "", errors.Join(errors.New(choice.FinishReason), ErrRetryable)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading stream: %w", err)
	}

	if output.Len() == 0 {
		return "", errors.Join(fmt.Errorf("no output"), ErrRetryable)
	}
	return output.String(), nil
}

func promptsToOpenAIMessages(prompts Prompts) (messages []ChatCompletionMessage) {
	if prompts.System != "" {
		messages = append(messages, ChatCompletionMessage{
			Role:    string(RoleSystem),
			Content: prompts.System,
		})
	}
	for _, msg := range prompts.Messages {
		// merge consecutive messages of the same role
		if len(messages) > 0 && messages[len(messages)-1].Role == string(msg.Role) {
			messages[len(messages)-1].Content += "\n\n" + msg.Text
			continue
		}
		messages = append(messages, ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Text,
		})
	}
	return
}

type NewOpenAI func(args GeneratorArgs, apiKey string) *OpenAI

func (Module) NewOpenAI(
	inject dscope.InjectStruct,
	client nets.HTTPClient,
) NewOpenAI {
	return func(args GeneratorArgs, apiKey string) *OpenAI {
		ret := &OpenAI{
			args:   args,
			client: client,
			apiKey: apiKey,
		}
		inject(&ret)
		return ret
	}
}

type OpenAIError struct {
	Err     error
	Request ChatCompletionRequest
}

var _ error = OpenAIError{}

func (o OpenAIError) Error() string {
	return o.Err.Error()
}

func (o OpenAIError) Unwrap() error {
	return o.Err
}

type ChatCompletionRequest struct {
	Model               string                  `json:"model"`
	Messages            []ChatCompletionMessage `json:"messages"`
	Stream              bool                    `json:"stream"`
	MaxCompletionTokens int                     `json:"max_completion_tokens,omitempty"`
	Temperature         float32                 `json:"temperature,omitempty"`
}

type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionStreamResponse struct {
	Choices []ChatCompletionStreamChoice `json:"choices"`
}

type ChatCompletionStreamChoice struct {
	Delta        ChatCompletionStreamChoiceDelta `json:"delta"`
	FinishReason string                          `json:"finish_reason"`
}

type ChatCompletionStreamChoiceDelta struct {
	Content          string `json:"content,omitempty"`
	Role             string `json:"role,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

type ErrorResponse struct {
	Error *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code           any     `json:"code,omitempty"`
	Message        string  `json:"message,omitempty"`
	Param          *string `json:"param,omitempty"`
	Type           string  `json:"type,omitempty"`
	HTTPStatusCode int     `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}
