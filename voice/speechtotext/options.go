package speechtotext

import "github.com/waypointhq/waypoint-core/voice/audio"

// Result is one incremental transcription update. Text always carries the
// whole transcript observable so far (confirmed segments plus the revisable
// tail); IsFinal is set on exactly the session-terminal update.
type Result struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

type TranscriptionOptions struct {
	ResultCallback     func(result Result)
	CompletionCallback func(transcript string)
	ErrorCallback      func(err error)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithResultCallback(callback func(result Result)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ResultCallback = callback
	}
}

func WithCompletionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.CompletionCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
