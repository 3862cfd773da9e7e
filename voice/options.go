package voice

import (
	"context"
	"time"

	"github.com/waypointhq/waypoint-core/voice/audio"
	"github.com/waypointhq/waypoint-core/voice/speechtotext"
)

type ServiceOption func(*Service)

// Transcriber is the recognition session contract the service drives. A
// Transcribe call returns only once the session is ready to accept audio.
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
	Close()
}

func WithTranscriber(client Transcriber) ServiceOption {
	return func(s *Service) { s.transcriber = client }
}

func WithAudioSource(source audio.Source) ServiceOption {
	return func(s *Service) { s.source = source }
}

// WithBufferedUpload switches the service to the non-streaming mode: the
// whole capture is accumulated, resampled offline, and uploaded in paced
// slices after recording stops.
func WithBufferedUpload() ServiceOption {
	return func(s *Service) { s.buffered = true }
}

// WithMaxDuration stops recording automatically once the ceiling elapses, as
// if Stop were called.
func WithMaxDuration(limit time.Duration) ServiceOption {
	return func(s *Service) { s.maxDuration = limit }
}

type SessionOptions struct {
	onStatusChanged func(status Status)
	onResult        func(text string, isFinal bool)
	onAudioLevel    func(level int)
	onCompletion    func(transcript string)
	onError         func(err error)
}

type SessionOption func(*SessionOptions)

// WithStatusCallback registers a callback for session lifecycle transitions.
func WithStatusCallback(callback func(status Status)) SessionOption {
	return func(o *SessionOptions) {
		o.onStatusChanged = callback
	}
}

// WithResultCallback registers a callback for transcript snapshots. Interim
// snapshots may be rewritten by later ones; isFinal marks the terminal,
// immutable snapshot.
func WithResultCallback(callback func(text string, isFinal bool)) SessionOption {
	return func(o *SessionOptions) {
		o.onResult = callback
	}
}

// WithAudioLevelCallback registers a callback for 0-100 capture amplitude
// updates, one per chunk. Advisory, for waveform UIs.
func WithAudioLevelCallback(callback func(level int)) SessionOption {
	return func(o *SessionOptions) {
		o.onAudioLevel = callback
	}
}

// WithCompletionCallback registers a callback for the terminal transcript.
// Cancelled sessions never trigger it.
func WithCompletionCallback(callback func(transcript string)) SessionOption {
	return func(o *SessionOptions) {
		o.onCompletion = callback
	}
}

// WithSessionErrorCallback registers a callback for session failure.
func WithSessionErrorCallback(callback func(err error)) SessionOption {
	return func(o *SessionOptions) {
		o.onError = callback
	}
}
