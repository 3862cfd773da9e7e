package audio

import (
	"context"
	"sync"
)

// Recording is a complete capture delivered in one piece by a BufferedSource.
type Recording struct {
	PCM      []byte
	Encoding EncodingInfo
}

// BufferedSource wraps a live Source but withholds its chunks, accumulating
// the whole take and handing it over only when capture stops. It backs the
// non-streaming recognition mode, where the recording is re-encoded offline
// and uploaded in paced slices.
type BufferedSource struct {
	base Source

	mu       sync.Mutex
	buf      []byte
	onDone   func(Recording)
	captured bool
}

func NewBufferedSource(base Source) *BufferedSource {
	return &BufferedSource{base: base}
}

// OnRecording registers the callback invoked once per capture, from
// StopCapture. Discarded captures (Close without StopCapture) never invoke
// it.
func (s *BufferedSource) OnRecording(onDone func(Recording)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = onDone
}

func (s *BufferedSource) StartCapture(ctx context.Context, onChunk func([]byte), onLevel func(int)) error {
	s.mu.Lock()
	s.buf = s.buf[:0]
	s.captured = true
	s.mu.Unlock()

	// onChunk is ignored: data is withheld until StopCapture.
	_ = onChunk
	return s.base.StartCapture(ctx, func(chunk []byte) {
		s.mu.Lock()
		s.buf = append(s.buf, chunk...)
		s.mu.Unlock()
	}, onLevel)
}

func (s *BufferedSource) StopCapture() error {
	err := s.base.StopCapture()

	s.mu.Lock()
	done := s.onDone
	var recording *Recording
	if s.captured {
		s.captured = false
		recording = &Recording{
			PCM:      append([]byte(nil), s.buf...),
			Encoding: s.base.EncodingInfo(),
		}
		s.buf = s.buf[:0]
	}
	s.mu.Unlock()

	if recording != nil && done != nil {
		done(*recording)
	}
	return err
}

// Close releases the device without delivering the recording.
func (s *BufferedSource) Close() {
	s.mu.Lock()
	s.captured = false
	s.buf = nil
	s.mu.Unlock()
	s.base.Close()
}

func (s *BufferedSource) EncodingInfo() EncodingInfo {
	return s.base.EncodingInfo()
}
