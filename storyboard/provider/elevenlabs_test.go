package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestElevenLabs_Narrate(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey, gotUA string
	var gotBody ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotUA = r.Header.Get("User-Agent")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	c := NewElevenLabs(ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL + "/", VoiceID: "voice-1"})
	audio, err := c.Narrate(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if string(audio) != "ID3audio" {
		t.Fatalf("audio=%q", string(audio))
	}
	if gotPath != "/v1/text-to-speech/voice-1" {
		t.Fatalf("path=%q", gotPath)
	}
	if gotKey != "k" {
		t.Fatalf("xi-api-key=%q", gotKey)
	}
	if gotUA != userAgent {
		t.Fatalf("User-Agent=%q", gotUA)
	}
	if gotBody.Text != "Hello there." || gotBody.ModelID != DefaultElevenLabsModel {
		t.Fatalf("body=%+v", gotBody)
	}
}

func TestElevenLabs_NarrateErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	c := NewElevenLabs(ElevenLabsConfig{APIKey: "bad", BaseURL: srv.URL})
	_, err := c.Narrate(context.Background(), "Hello.")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid_api_key") {
		t.Fatalf("err=%v", err)
	}
}

func TestElevenLabs_NarrateRejectsEmpty(t *testing.T) {
	t.Parallel()

	c := NewElevenLabs(ElevenLabsConfig{APIKey: "k"})
	if _, err := c.Narrate(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty text")
	}
	noKey := NewElevenLabs(ElevenLabsConfig{})
	if _, err := noKey.Narrate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestElevenLabs_Voices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"21m00Tcm4TlvDq8ikWAM","name":"Rachel","category":"premade"},{"voice_id":"abc","name":"Custom"}]}`))
	}))
	defer srv.Close()

	c := NewElevenLabs(ElevenLabsConfig{APIKey: "k", BaseURL: srv.URL})
	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 || voices[0].Name != "Rachel" || voices[1].VoiceID != "abc" {
		t.Fatalf("voices=%+v", voices)
	}
}
