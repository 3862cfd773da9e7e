// Package iflytek streams microphone audio to the iFlytek IAT websocket
// service and reconciles its incremental transcription frames into a stable
// transcript.
package iflytek

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/waypointhq/waypoint-core/voice/speechtotext"
)

type TranscriptionClient struct {
	resolver Resolver
	params   sessionParams

	connMu sync.Mutex
	conn   *websocket.Conn

	state transcriptState

	failOnce *sync.Once
}

type sessionParams struct {
	language string
	domain   string
	accent   string
	vadEOS   int
	dynamic  bool
	ptt      int
	nunum    int
}

type Option func(*TranscriptionClient)

// WithCredentials signs endpoints in-process. Requires the shared secret, so
// it belongs in trusted processes only.
func WithCredentials(creds Credentials) Option {
	return func(c *TranscriptionClient) { c.resolver = LocalSigner{Credentials: creds} }
}

// WithResolver supplies an external endpoint resolver, typically the token
// endpoint of a trusted backend.
func WithResolver(resolver Resolver) Option {
	return func(c *TranscriptionClient) { c.resolver = resolver }
}

func WithLanguage(language string) Option {
	return func(c *TranscriptionClient) { c.params.language = language }
}

func WithAccent(accent string) Option {
	return func(c *TranscriptionClient) { c.params.accent = accent }
}

// WithVadEOS sets the server-side end-of-speech timeout in milliseconds.
func WithVadEOS(ms int) Option {
	return func(c *TranscriptionClient) { c.params.vadEOS = ms }
}

func WithoutDynamicCorrection() Option {
	return func(c *TranscriptionClient) { c.params.dynamic = false }
}

func WithoutPunctuation() Option {
	return func(c *TranscriptionClient) { c.params.ptt = 0 }
}

func NewTranscriptionClient(opts ...Option) *TranscriptionClient {
	client := &TranscriptionClient{
		params: sessionParams{
			language: "zh_cn",
			domain:   "iat",
			accent:   "mandarin",
			vadEOS:   5000,
			dynamic:  true,
			ptt:      1,
			nunum:    1,
		},
		failOnce: &sync.Once{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Transcribe resolves a signed endpoint, opens the socket and performs the
// session handshake: the opening frame with business parameters is written
// before Transcribe returns, so a caller that starts its capture device
// afterwards is guaranteed the server has the session parameters ahead of any
// audio. Inbound frames are then processed in arrival order on a single
// goroutine.
func (c *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	ctx, span := tracer.Start(ctx, "open recognition session")
	defer span.End()

	if c.resolver == nil {
		return ErrMissingCredentials
	}

	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	endpoint, err := c.resolver.ResolveEndpoint(ctx)
	if err != nil {
		err = fmt.Errorf("failed to resolve signed endpoint: %w", err)
		span.RecordError(err)
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.URL, nil)
	if err != nil {
		err = fmt.Errorf("failed to open socket connection to recognition service: %w", err)
		span.RecordError(err)
		return err
	}

	opening := openingFrame{
		Common: commonParams{AppID: endpoint.AppID},
		Business: businessParams{
			Language: c.params.language,
			Domain:   c.params.domain,
			Accent:   c.params.accent,
			VadEOS:   c.params.vadEOS,
			Ptt:      c.params.ptt,
			Nunum:    c.params.nunum,
		},
		Data: audioPayload{
			Status:   frameStatusFirst,
			Format:   audioFormat,
			Encoding: audioEncoding,
		},
	}
	if c.params.dynamic {
		opening.Business.Dwa = "wpgs"
	}

	if err := conn.WriteJSON(opening); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send session parameters: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.state = transcriptState{}
	c.failOnce = &sync.Once{}
	c.connMu.Unlock()

	go c.readAndProcessMessages(conn, options)

	return nil
}

// SendAudio frames one PCM chunk as a middle frame. Chunks arriving while no
// session is open are dropped with a warning rather than failing the caller;
// the capture callback may race a session teardown.
func (c *TranscriptionClient) SendAudio(audio []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		logger.Warn("dropping audio chunk: recognition session is not open")
		return nil
	}

	frame := audioFrame{Data: audioPayload{
		Status:   frameStatusCont,
		Format:   audioFormat,
		Encoding: audioEncoding,
		Audio:    base64.StdEncoding.EncodeToString(audio),
	}}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to write to recognition service: %w", err)
	}
	return nil
}

// StopStream sends the end-of-stream frame. The socket stays open: the server
// closes the session by sending its terminal frame once trailing audio is
// transcribed.
func (c *TranscriptionClient) StopStream() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	frame := audioFrame{Data: audioPayload{
		Status:   frameStatusLast,
		Format:   audioFormat,
		Encoding: audioEncoding,
	}}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to send end-of-stream frame: %w", err)
	}
	return nil
}

// Close tears the session down immediately without an end-of-stream frame and
// discards all reconciliation state. Safe to call at any point, repeatedly.
func (c *TranscriptionClient) Close() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.teardownLocked()
}

func (c *TranscriptionClient) teardownLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = transcriptState{}
}

func (c *TranscriptionClient) readAndProcessMessages(conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.connMu.Lock()
			// Only the session that still owns this conn reports the error;
			// a cancelled/finished session already cleared it.
			active := c.conn == conn
			c.teardownLocked()
			c.connMu.Unlock()

			if active && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.fail(options, fmt.Errorf("recognition connection closed unexpectedly: %w", err))
			}
			return
		}

		if done := c.processMessage(conn, msg, options); done {
			return
		}
	}
}

// processMessage folds one inbound frame into the transcript and emits the
// resulting callbacks. It returns true once the read loop should exit: the
// session reached a terminal state, or the frame raced a teardown and belongs
// to a session that no longer owns the connection.
func (c *TranscriptionClient) processMessage(conn *websocket.Conn, msg []byte, options speechtotext.TranscriptionOptions) bool {
	var frame serverFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		if !c.owns(conn) {
			return true
		}
		// A skipped frame could desynchronize segment reconciliation, so a
		// malformed frame is fatal to the session.
		c.closeOwned(conn)
		c.fail(options, fmt.Errorf("failed to parse recognition frame: %w", err))
		return true
	}

	c.connMu.Lock()
	// A frame read just before Close, with a new session already open, must
	// not leak into the new session's transcript.
	if c.conn != conn {
		c.connMu.Unlock()
		return true
	}
	state, outcome, err := reconcile(c.state, frame)
	c.state = state
	c.connMu.Unlock()

	if err != nil {
		c.closeOwned(conn)
		c.fail(options, err)
		return true
	}

	if outcome.result != nil && options.ResultCallback != nil {
		options.ResultCallback(*outcome.result)
	}
	if outcome.completed {
		c.closeOwned(conn)
		if options.CompletionCallback != nil {
			options.CompletionCallback(outcome.final)
		}
		return true
	}
	return false
}

func (c *TranscriptionClient) owns(conn *websocket.Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn == conn
}

// closeOwned tears the session down only while conn is still the active
// connection, so a frame racing a teardown cannot close a successor session's
// socket.
func (c *TranscriptionClient) closeOwned(conn *websocket.Conn) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == conn {
		c.teardownLocked()
	}
}

func (c *TranscriptionClient) fail(options speechtotext.TranscriptionOptions, err error) {
	c.connMu.Lock()
	once := c.failOnce
	c.connMu.Unlock()

	once.Do(func() {
		if options.ErrorCallback != nil {
			options.ErrorCallback(err)
		} else {
			logger.Error("recognition session failed", "error", err)
		}
	})
}
