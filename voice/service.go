package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waypointhq/waypoint-core/voice/audio"
	"github.com/waypointhq/waypoint-core/voice/events"
	"github.com/waypointhq/waypoint-core/voice/speechtotext"
)

type Status string

const (
	StatusIdle        Status = "idle"
	StatusRecording   Status = "recording"
	StatusRecognizing Status = "recognizing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

const (
	// uploadSliceBytes and uploadSliceInterval pace the buffered upload at
	// real-time rate (1280 bytes is 40ms of 16kHz linear16), standing in for
	// backpressure the one-way upload lacks.
	uploadSliceBytes    = 1280
	uploadSliceInterval = 40 * time.Millisecond
)

// Service drives one voice recognition session at a time: it owns the capture
// source and the transcription client, sequences them (the recognition stream
// is ready before the first chunk is captured), and reports progress through
// typed events bridged to per-session callbacks.
type Service struct {
	source      audio.Source
	transcriber Transcriber
	maxDuration time.Duration
	buffered    bool

	mu      sync.Mutex
	status  Status
	session *session
}

// session is the per-Start runtime state. Callbacks from the capture and
// recognition goroutines carry the session pointer and are dropped when it no
// longer matches the service's current session.
type session struct {
	emit      eventEmitter
	capture   audio.Source
	streaming bool
	maxTimer  *time.Timer
	done      chan struct{}

	// uploadCtx carries the Start context into the deferred buffered upload.
	uploadCtx context.Context
}

func NewService(opts ...ServiceOption) (*Service, error) {
	s := &Service{status: StatusIdle}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil || s.transcriber == nil {
		return nil, ErrNotConfigured
	}
	return s, nil
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start begins a recognition session. In streaming mode the recognition
// stream is opened first and capture starts only once it is ready, so no
// chunk is dropped. Only one session can be in flight; a second Start before
// the previous session completed, failed, or was cancelled returns
// ErrSessionActive.
func (s *Service) Start(ctx context.Context, opts ...SessionOption) error {
	ctx, span := tracer.Start(ctx, "start voice session")
	defer span.End()

	options := SessionOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return ErrSessionActive
	}
	sess := &session{
		emit:      newCallbackEventEmitter(options),
		streaming: !s.buffered,
		done:      make(chan struct{}),
		uploadCtx: ctx,
	}
	s.session = sess
	s.status = StatusRecording
	s.mu.Unlock()

	var err error
	if sess.streaming {
		err = s.startStreaming(ctx, sess)
	} else {
		err = s.startBuffered(ctx, sess)
	}
	if err != nil {
		s.mu.Lock()
		if s.session == sess {
			s.session = nil
			s.status = StatusIdle
		}
		s.mu.Unlock()
		return err
	}

	if s.maxDuration > 0 {
		sess.maxTimer = time.AfterFunc(s.maxDuration, func() {
			if s.sessionIs(sess) {
				_ = s.Stop(context.Background())
			}
		})
	}

	sess.emit(events.NewVoiceStatusChanged(string(StatusRecording)))
	return nil
}

func (s *Service) startStreaming(ctx context.Context, sess *session) error {
	opts := append(s.sessionCallbacks(sess), speechtotext.WithEncodingInfo(s.source.EncodingInfo()))
	if err := s.transcriber.Transcribe(ctx, opts...); err != nil {
		return fmt.Errorf("failed to open the recognition stream: %w", err)
	}

	sess.capture = s.source
	err := s.source.StartCapture(ctx,
		func(chunk []byte) {
			if s.sessionIs(sess) {
				_ = s.transcriber.SendAudio(chunk)
			}
		},
		s.levelCallback(sess),
	)
	if err != nil {
		s.transcriber.Close()
		return &DeviceError{Op: "start", Err: err}
	}
	return nil
}

func (s *Service) startBuffered(ctx context.Context, sess *session) error {
	buffered := audio.NewBufferedSource(s.source)
	buffered.OnRecording(func(recording audio.Recording) {
		go s.uploadRecording(sess, recording)
	})

	sess.capture = buffered
	if err := buffered.StartCapture(ctx, nil, s.levelCallback(sess)); err != nil {
		return &DeviceError{Op: "start", Err: err}
	}
	return nil
}

// Stop ends recording and waits for the terminal transcript. In streaming
// mode the end-of-stream frame is sent right away; in buffered mode the
// accumulated recording is resampled and uploaded first. Stop returns once
// the session completed or failed, or when ctx expires. Without an active
// recording it is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	if sess == nil || s.status != StatusRecording {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusRecognizing
	s.mu.Unlock()

	if sess.maxTimer != nil {
		sess.maxTimer.Stop()
	}
	sess.emit(events.NewVoiceStatusChanged(string(StatusRecognizing)))

	if err := sess.capture.StopCapture(); err != nil {
		logger.Warn("failed to stop capture", "error", err)
	}
	if sess.streaming {
		if err := s.transcriber.StopStream(); err != nil {
			logger.Warn("failed to end the recognition stream", "error", err)
		}
	}

	select {
	case <-sess.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel tears the session down immediately. No completion is emitted and
// the partial transcript is discarded. Safe to call without a session.
func (s *Service) Cancel() {
	s.mu.Lock()
	sess := s.session
	if sess == nil {
		s.mu.Unlock()
		return
	}
	s.session = nil
	s.status = StatusIdle
	s.mu.Unlock()

	if sess.maxTimer != nil {
		sess.maxTimer.Stop()
	}
	// The buffered wrapper still fires its recording callback here; the
	// session pointer no longer matches, so the recording is dropped.
	if sess.capture != nil {
		_ = sess.capture.StopCapture()
	}
	s.transcriber.Close()

	sess.emit(events.NewVoiceStatusChanged(string(StatusIdle)))
	close(sess.done)
}

// Destroy cancels any session and releases the capture device. The service
// is unusable afterwards. Idempotent.
func (s *Service) Destroy() {
	s.Cancel()
	s.source.Close()
}

// uploadRecording runs the non-streaming path: resample to the wire rate,
// open the recognition stream, and upload paced slices followed by the
// end-of-stream frame.
func (s *Service) uploadRecording(sess *session, recording audio.Recording) {
	if !s.sessionIs(sess) {
		return
	}

	_, span := tracer.Start(sess.uploadCtx, "upload recording")
	defer span.End()

	pcm := recording.PCM
	if recording.Encoding.SampleRate != audio.DefaultSampleRate {
		samples := audio.ParsePCM16(pcm)
		samples = audio.Resample(samples, recording.Encoding.SampleRate, audio.DefaultSampleRate)
		pcm = audio.PCM16Bytes(samples)
	}

	opts := append(s.sessionCallbacks(sess), speechtotext.WithEncodingInfo(audio.GetDefaultEncodingInfo()))
	if err := s.transcriber.Transcribe(sess.uploadCtx, opts...); err != nil {
		s.failSession(sess, fmt.Errorf("failed to open the recognition stream: %w", err))
		return
	}

	group, ctx := errgroup.WithContext(sess.uploadCtx)
	group.Go(func() error {
		ticker := time.NewTicker(uploadSliceInterval)
		defer ticker.Stop()

		for offset := 0; offset < len(pcm); offset += uploadSliceBytes {
			end := min(offset+uploadSliceBytes, len(pcm))
			if err := s.transcriber.SendAudio(pcm[offset:end]); err != nil {
				return fmt.Errorf("failed to upload audio: %w", err)
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return s.transcriber.StopStream()
	})
	if err := group.Wait(); err != nil {
		s.transcriber.Close()
		s.failSession(sess, err)
	}
}

// sessionCallbacks bridges the transcription client's callbacks to this
// session's events, dropping anything that arrives after the session ended.
func (s *Service) sessionCallbacks(sess *session) []speechtotext.TranscriptionOption {
	return []speechtotext.TranscriptionOption{
		speechtotext.WithResultCallback(func(result speechtotext.Result) {
			if s.sessionIs(sess) {
				sess.emit(events.NewVoiceResult(result.Text, result.IsFinal))
			}
		}),
		speechtotext.WithCompletionCallback(func(transcript string) {
			s.completeSession(sess, transcript)
		}),
		speechtotext.WithErrorCallback(func(err error) {
			s.failSession(sess, err)
		}),
	}
}

func (s *Service) levelCallback(sess *session) func(level int) {
	return func(level int) {
		if s.sessionIs(sess) {
			sess.emit(events.NewVoiceAudioLevel(level))
		}
	}
}

func (s *Service) completeSession(sess *session, transcript string) {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return
	}
	s.session = nil
	s.status = StatusCompleted
	s.mu.Unlock()

	sess.emit(events.NewVoiceStatusChanged(string(StatusCompleted)))
	sess.emit(events.NewVoiceCompleted(transcript))
	close(sess.done)
}

func (s *Service) failSession(sess *session, err error) {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return
	}
	s.session = nil
	s.status = StatusError
	s.mu.Unlock()

	if sess.maxTimer != nil {
		sess.maxTimer.Stop()
	}
	if sess.capture != nil {
		_ = sess.capture.StopCapture()
	}

	sess.emit(events.NewVoiceStatusChanged(string(StatusError)))
	sess.emit(events.NewVoiceFailed(err))
	close(sess.done)
}

func (s *Service) sessionIs(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session == sess
}
