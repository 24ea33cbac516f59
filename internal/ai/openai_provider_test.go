package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatResponseWith(content string) chatResponse {
	return chatResponse{
		Choices: []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{
			{Message: struct {
				Content string `json:"content"`
			}{Content: content}},
		},
	}
}

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponseWith("  Dear hiring manager,\n"))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	got, err := provider.Complete(context.Background(), Request{Prompt: "write an email"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "  Dear hiring manager,\n" {
		t.Errorf("got %q, want content returned verbatim", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestComplete_Unauthorized(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]string{"message": "Invalid API Key", "type": "invalid_request_error"},
	})

	provider := NewOpenAIProvider(srv.URL, "bad-key", "test-model", client)
	if _, err := provider.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{Choices: nil})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_MissingKeySkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "", "test-model", srv.Client())
	_, err := provider.Complete(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestComplete_SetsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponseWith("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", "test-model", srv.Client())
	_, _ = provider.Complete(context.Background(), Request{Prompt: "hello"})

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
}

func TestComplete_JSONModeAndTemperature(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponseWith("{}"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL+"/", "key", DefaultGroqModel, srv.Client())
	_, err := provider.Complete(context.Background(), Request{System: "be precise", Prompt: "extract", JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", gotReq.ResponseFormat)
	}
	if gotReq.Temperature != 0 {
		t.Errorf("temperature = %d, want 0", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "extract" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Model != DefaultGroqModel {
		t.Errorf("model = %q", gotReq.Model)
	}
}

func TestComplete_TextModeOmitsResponseFormat(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		json.NewEncoder(w).Encode(chatResponseWith("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "key", "m", srv.Client())
	if _, err := provider.Complete(context.Background(), Request{Prompt: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := raw["response_format"]; ok {
		t.Error("response_format should be omitted in text mode")
	}
	if msgs, _ := raw["messages"].([]any); len(msgs) != 1 {
		t.Errorf("expected only a user message, got %v", raw["messages"])
	}
}

func TestCheckConnection(t *testing.T) {
	var gotPrompt string
	p := &mockProvider{fn: func(req Request) (string, error) {
		gotPrompt = req.Prompt
		return "ok", nil
	}}
	if err := CheckConnection(context.Background(), p); err != nil {
		t.Fatalf("CheckConnection: %v", err)
	}
	if gotPrompt != connectionCheckPrompt {
		t.Errorf("connection check prompt = %q", gotPrompt)
	}

	err := CheckConnection(context.Background(), NewUnconfiguredProvider())
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}
