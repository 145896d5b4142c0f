package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatSendsHistoryAndAuth(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hi there"}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "test-key")
	out, err := client.Chat(context.Background(), "gpt-4o-mini", []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, 0.7)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != "hi there" {
		t.Fatalf("got %q", out)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header %q", gotAuth)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("history not forwarded: %+v", gotReq.Messages)
	}
	if gotReq.Temperature != 0.7 {
		t.Fatalf("temperature %v", gotReq.Temperature)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "k")
	_, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "x"}}, 0)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("want api error message, got %v", err)
	}
}

func TestTranscribeMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model field %q", r.FormValue("model"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " hello world "})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "")
	text, err := client.Transcribe(context.Background(), "voice.webm", strings.NewReader("fake-audio-bytes"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("got %q", text)
	}
}

func TestSpeakReturnsAudioBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["voice"] != "alloy" {
			t.Errorf("default voice not applied: %v", body["voice"])
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "")
	audio, err := client.Speak(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("got %q", audio)
	}
}

func TestResolveModel(t *testing.T) {
	if got := ResolveModel("gpt-4o"); got != "gpt-4o" {
		t.Fatalf("allowed model rewritten to %q", got)
	}
	if got := ResolveModel("totally-made-up"); got != DefaultModel {
		t.Fatalf("unknown model should fall back, got %q", got)
	}
	if got := ResolveModel(""); got != DefaultModel {
		t.Fatalf("empty model should fall back, got %q", got)
	}
}
