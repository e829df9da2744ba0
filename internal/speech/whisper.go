package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/weatherchat/backend/internal/config"
)

// WhisperRecognizer transcribes audio with the OpenAI transcription API.
type WhisperRecognizer struct {
	api   *openai.Client
	model string
}

// NewWhisperRecognizer returns nil when no API key is configured.
func NewWhisperRecognizer(cfg config.SpeechConfig) *WhisperRecognizer {
	if !cfg.Enabled() {
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = cleanhttp.DefaultPooledClient()

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperRecognizer{
		api:   openai.NewClientWithConfig(clientCfg),
		model: model,
	}
}

// Transcribe spools the audio to a temp file and uploads it. The file name
// extension tells the API which container it is.
func (w *WhisperRecognizer) Transcribe(ctx context.Context, audio io.Reader, format, language string) (string, error) {
	file, err := os.CreateTemp("", "speech-*."+format)
	if err != nil {
		return "", fmt.Errorf("creating temp audio file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if _, err := io.Copy(file, audio); err != nil {
		return "", fmt.Errorf("writing temp audio file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing temp audio file: %w", err)
	}

	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: file.Name(),
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("creating transcription: %w", err)
	}
	return resp.Text, nil
}
