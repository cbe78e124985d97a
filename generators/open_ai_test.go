package generators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/taicell/configs"
	"github.com/reusee/taicell/modes"
)

func newTestOpenAI(t *testing.T, url string) (ret *OpenAI) {
	dscope.New(
		modes.ForTest(t),
		dscope.Provide(configs.NewLoader(nil, "")),
		new(Module),
	).Call(func(
		newOpenAI NewOpenAI,
	) {
		ret = newOpenAI(GeneratorArgs{
			BaseURL: url,
			Model:   "test-model",
		}, "sk-test")
	})
	return
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("got %v", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("got %v", auth)
		}
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.Model != "test-model" || !req.Stream {
			t.Errorf("got %+v", req)
		}
		// system, then the two user messages merged into one
		if len(req.Messages) != 2 {
			t.Errorf("got %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"df = ", "df.head(", "3)"} {
			data, _ := json.Marshal(ChatCompletionStreamResponse{
				Choices: []ChatCompletionStreamChoice{
					{Delta: ChatCompletionStreamChoiceDelta{Content: chunk}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	gen := newTestOpenAI(t, server.URL)
	prompts := NewPrompts("system", "first", "second")
	text, err := gen.Generate(t.Context(), prompts)
	if err != nil {
		t.Fatal(err)
	}
	if text != "df = df.head(3)" {
		t.Fatalf("got %q", text)
	}
}

func TestOpenAIBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	gen := newTestOpenAI(t, server.URL)
	_, err := gen.Generate(t.Context(), NewPrompts("", "hi"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v", err)
	}
	if apiErr.Message != "bad model" {
		t.Fatalf("got %v", apiErr.Message)
	}
	if apiErr.HTTPStatusCode != http.StatusBadRequest {
		t.Fatalf("got %v", apiErr.HTTPStatusCode)
	}
	if errors.Is(err, ErrRetryable) {
		t.Fatal()
	}
}

func TestOpenAIRetry(t *testing.T) {
	defer func(backoff time.Duration) {
		retryBackoff = backoff
	}(retryBackoff)
	retryBackoff = time.Millisecond

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, "slow down")
			return
		}
		io.WriteString(w, `data: {"choices":[{"delta":{"content":"ok"}}]}`+"\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	gen := newTestOpenAI(t, server.URL)
	text, err := gen.Generate(t.Context(), NewPrompts("", "hi"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "ok" {
		t.Fatalf("got %q", text)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("got %v", n)
	}
}

func TestPromptsToOpenAIMessages(t *testing.T) {
	prompts := NewPrompts("sys", "a")
	prompts = prompts.Append(RoleAssistant, "b")
	prompts = prompts.Append(RoleUser, "c")
	prompts = prompts.Append(RoleUser, "d")
	messages := promptsToOpenAIMessages(prompts)
	if len(messages) != 4 {
		t.Fatalf("got %+v", messages)
	}
	if messages[0].Role != "system" {
		t.Fatalf("got %v", messages[0].Role)
	}
	if !strings.Contains(messages[3].Content, "c\n\nd") {
		t.Fatalf("got %v", messages[3].Content)
	}
}
