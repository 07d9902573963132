package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Invoke_Ollama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "test-model" {
			t.Errorf("model = %v, want test-model", req["model"])
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "hello from ollama"})
	}))
	defer srv.Close()

	c := New(ProviderOllama, srv.URL, "test-model", "", 0, nil)
	out, err := c.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "hello from ollama" {
		t.Errorf("out = %q, want %q", out, "hello from ollama")
	}
}

func TestClient_Invoke_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing auth header: %q", r.Header.Get("Authorization"))
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello from openai"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(ProviderOpenAI, srv.URL, "gpt", "secret", 0.2, nil)
	out, err := c.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "hello from openai" {
		t.Errorf("out = %q, want %q", out, "hello from openai")
	}
}

func TestClient_Invoke_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(ProviderOllama, srv.URL, "test-model", "", 0, nil)
	_, err := c.Invoke(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestClient_Invoke_UnsupportedProvider(t *testing.T) {
	c := New(Provider("unknown"), "http://example.invalid", "m", "", 0, nil)
	_, err := c.Invoke(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestClient_Invoke_OpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []map[string]interface{}{}})
	}))
	defer srv.Close()

	c := New(ProviderOpenAI, srv.URL, "gpt", "key", 0, nil)
	_, err := c.Invoke(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
