package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"windexai/pkg/domain"
)

const maxAudioBytes = 25 << 20

var allowedAudioExtensions = map[string]bool{
	".webm": true,
	".mp3":  true,
	".mp4":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
}

// VoiceResult carries the transcription, the model reply and the audio URLs.
type VoiceResult struct {
	Transcript     string `json:"transcript"`
	Reply          string `json:"response"`
	ConversationID string `json:"conversationId"`
	UserAudioURL   string `json:"userAudioUrl,omitempty"`
	AudioURL       string `json:"audioUrl,omitempty"`
}

// VoiceMessage transcribes the uploaded audio, runs the regular chat flow on
// the transcript and synthesizes a spoken reply. Storing the original audio
// and speech synthesis are best effort: their failure never fails the
// exchange.
func (a *App) VoiceMessage(ctx context.Context, user domain.User, conversationID, filename string, audio io.Reader) (VoiceResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAudioExtensions[ext] {
		return VoiceResult{}, fmt.Errorf("%w %q", ErrUnsupportedFile, ext)
	}
	data, err := io.ReadAll(io.LimitReader(audio, maxAudioBytes))
	if err != nil {
		return VoiceResult{}, fmt.Errorf("read audio: %w", err)
	}

	transcript, err := a.llm.Transcribe(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return VoiceResult{}, fmt.Errorf("transcribe: %w", err)
	}
	if transcript == "" {
		return VoiceResult{}, fmt.Errorf("empty transcription")
	}

	userAudioURL := a.storeAudio(ctx, user, ext, data)

	chat, err := a.exchange(ctx, user, conversationID, transcript, "", domain.MessageVoice, userAudioURL)
	if err != nil {
		return VoiceResult{}, err
	}

	result := VoiceResult{
		Transcript:     transcript,
		Reply:          chat.Reply,
		ConversationID: chat.ConversationID,
		UserAudioURL:   userAudioURL,
	}
	if url := a.synthesizeReply(ctx, user, chat.Reply); url != "" {
		result.AudioURL = url
	}
	return result, nil
}

// storeAudio keeps the uploaded original so the client can replay it.
func (a *App) storeAudio(ctx context.Context, user domain.User, ext string, data []byte) string {
	if a.objects == nil || len(data) == 0 {
		return ""
	}
	key := fmt.Sprintf("audio/%s/uploads/%s%s", user.ID, uuid.NewString(), ext)
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		a.log.Warn("store upload audio failed", "error", err)
		return ""
	}
	url, err := a.objects.PresignGet(ctx, key, 24*time.Hour)
	if err != nil {
		a.log.Warn("presign upload audio failed", "error", err)
		return ""
	}
	return url
}

func (a *App) synthesizeReply(ctx context.Context, user domain.User, text string) string {
	if a.objects == nil {
		return ""
	}
	audio, err := a.llm.Speak(ctx, text, "")
	if err != nil {
		a.log.Warn("speech synthesis failed", "error", err)
		return ""
	}
	key := fmt.Sprintf("audio/%s/%s.mp3", user.ID, uuid.NewString())
	if err := a.objects.Put(ctx, key, bytes.NewReader(audio), int64(len(audio)), "audio/mpeg"); err != nil {
		a.log.Warn("store reply audio failed", "error", err)
		return ""
	}
	url, err := a.objects.PresignGet(ctx, key, 24*time.Hour)
	if err != nil {
		a.log.Warn("presign reply audio failed", "error", err)
		return ""
	}
	return url
}
