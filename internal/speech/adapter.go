// Package speech turns buffered microphone audio into text for the chat input.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	ErrUnsupported  = errors.New("speech recognition is not supported")
	ErrNotListening = errors.New("speech adapter is not listening")
	ErrEmptyAudio   = errors.New("no audio captured")
	ErrTooLarge     = errors.New("audio exceeds the upload limit")
)

// DefaultFormat is assumed when a client does not name its audio container.
const DefaultFormat = "wav"

// Recognizer transcribes one complete utterance.
type Recognizer interface {
	Transcribe(ctx context.Context, audio io.Reader, format, language string) (string, error)
}

// State of the adapter.
type State int

const (
	Idle State = iota
	Listening
)

func (s State) String() string {
	if s == Listening {
		return "listening"
	}
	return "idle"
}

// Adapter is a single-shot Idle -> Listening -> Idle state machine.
// It is safe for concurrent use.
type Adapter struct {
	mu         sync.Mutex
	recognizer Recognizer
	maxBytes   int
	state      State
	format     string
	buffer     bytes.Buffer
}

// NewAdapter creates an adapter. A nil recognizer makes every Toggle fail
// with ErrUnsupported. maxBytes <= 0 disables the size check.
func NewAdapter(recognizer Recognizer, maxBytes int) *Adapter {
	return &Adapter{recognizer: recognizer, maxBytes: maxBytes}
}

// Supported reports whether a recognizer is available.
func (a *Adapter) Supported() bool {
	return a.recognizer != nil
}

// State returns the current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Toggle starts listening, or stops and discards any buffered audio.
func (a *Adapter) Toggle() (State, error) {
	if !a.Supported() {
		return Idle, ErrUnsupported
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Listening {
		a.resetLocked()
		return a.state, nil
	}
	a.state = Listening
	return a.state, nil
}

// Feed buffers an audio chunk.
func (a *Adapter) Feed(chunk []byte, format string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Listening {
		return ErrNotListening
	}
	if a.maxBytes > 0 && a.buffer.Len()+len(chunk) > a.maxBytes {
		a.resetLocked()
		return ErrTooLarge
	}
	if format != "" {
		a.format = strings.ToLower(format)
	}
	a.buffer.Write(chunk)
	return nil
}

// Finish stops listening and transcribes what was buffered. The adapter is
// Idle afterwards whatever the outcome.
func (a *Adapter) Finish(ctx context.Context, language string) (string, error) {
	a.mu.Lock()
	if a.state != Listening {
		a.mu.Unlock()
		return "", ErrNotListening
	}
	audio := bytes.Clone(a.buffer.Bytes())
	format := a.format
	a.resetLocked()
	a.mu.Unlock()

	return Transcribe(ctx, a.recognizer, bytes.NewReader(audio), len(audio), format, language)
}

func (a *Adapter) resetLocked() {
	a.state = Idle
	a.format = ""
	a.buffer.Reset()
}

// Transcribe runs a one-shot recognition. size is only used to reject empty
// input; pass -1 when unknown.
func Transcribe(ctx context.Context, recognizer Recognizer, audio io.Reader, size int, format, language string) (string, error) {
	if recognizer == nil {
		return "", ErrUnsupported
	}
	if size == 0 {
		return "", ErrEmptyAudio
	}
	if format == "" {
		format = DefaultFormat
	}

	text, err := recognizer.Transcribe(ctx, audio, format, language)
	if err != nil {
		return "", fmt.Errorf("transcribe %s audio: %w", format, err)
	}
	return strings.TrimSpace(text), nil
}
