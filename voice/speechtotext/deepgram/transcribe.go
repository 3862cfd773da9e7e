// Package deepgram streams audio to the Deepgram listen websocket behind the
// same transcription contract as the primary provider. Finalized utterance
// pieces accumulate into the confirmed transcript while interim pieces form a
// revisable tail, so callers observe the same confirmed-plus-pending shape.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/waypointhq/waypoint-core/voice/audio"
	"github.com/waypointhq/waypoint-core/voice/speechtotext"
)

const defaultListenURL = "wss://api.deepgram.com/v1/listen"

type TranscriptionClient struct {
	apiKey    string
	listenURL string
	model     string
	language  string

	connMu sync.Mutex
	conn   *websocket.Conn

	confirmed string
	pending   string
	lastMsgTs time.Time

	sessionCancel context.CancelFunc
}

type Option func(*TranscriptionClient)

func WithAPIKey(apiKey string) Option {
	return func(c *TranscriptionClient) { c.apiKey = apiKey }
}

func WithModel(model string) Option {
	return func(c *TranscriptionClient) { c.model = model }
}

func WithLanguage(language string) Option {
	return func(c *TranscriptionClient) { c.language = language }
}

// WithListenURL overrides the websocket endpoint, for tests and proxies.
func WithListenURL(listenURL string) Option {
	return func(c *TranscriptionClient) { c.listenURL = listenURL }
}

func NewTranscriptionClient(opts ...Option) *TranscriptionClient {
	client := &TranscriptionClient{
		listenURL: defaultListenURL,
		model:     "nova-3",
		language:  "en-US",
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.apiKey == "" {
		client.apiKey, _ = os.LookupEnv("DEEPGRAM_API_KEY")
	}
	return client
}

// Transcribe opens the listen socket. It returns once the socket is
// connected, so a caller that starts capture afterwards never loses leading
// audio. Inbound messages are processed in arrival order on one goroutine;
// the session completes when the server closes the socket after the
// CloseStream message.
func (c *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	if c.apiKey == "" {
		return fmt.Errorf("deepgram api key not found")
	}

	options := speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	listenURL, err := url.Parse(c.listenURL)
	if err != nil {
		return fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("endpointing", "300")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	silenceCtx, silenceCancel := context.WithCancel(ctx)

	c.connMu.Lock()
	c.conn = conn
	c.confirmed = ""
	c.pending = ""
	c.lastMsgTs = time.Now()
	c.sessionCancel = silenceCancel
	c.connMu.Unlock()

	go c.generateSilence(silenceCtx, options.EncodingInfo)
	go c.readAndProcessMessages(conn, options)

	return nil
}

// SendAudio writes one PCM chunk as a binary message. Chunks arriving while
// no session is open are dropped with a warning.
func (c *TranscriptionClient) SendAudio(chunk []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		logger.Warn("dropping audio chunk: recognition session is not open")
		return nil
	}

	c.lastMsgTs = time.Now()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// StopStream asks the server to flush and close. The socket stays open until
// the server finishes transcribing buffered audio and closes it.
func (c *TranscriptionClient) StopStream() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	if err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// Close tears the session down immediately and discards the transcript.
func (c *TranscriptionClient) Close() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.teardownLocked()
}

func (c *TranscriptionClient) teardownLocked() {
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.confirmed = ""
	c.pending = ""
}

func (c *TranscriptionClient) readAndProcessMessages(conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			c.connMu.Lock()
			active := c.conn == conn
			transcript := c.confirmed
			c.teardownLocked()
			c.connMu.Unlock()

			if !active {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if options.ResultCallback != nil {
					options.ResultCallback(speechtotext.Result{Text: transcript, IsFinal: true})
				}
				if options.CompletionCallback != nil {
					options.CompletionCallback(transcript)
				}
			} else if options.ErrorCallback != nil {
				options.ErrorCallback(fmt.Errorf("recognition connection closed unexpectedly: %w", err))
			} else {
				logger.Error("recognition session failed", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			c.processMessage(msg, options)
		}
	}
}

func (c *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}
	if len(msgResp.Channel.Alternatives) == 0 {
		return
	}
	alternative := msgResp.Channel.Alternatives[0]
	transcript := strings.TrimSpace(alternative.Transcript)

	c.connMu.Lock()
	if msgResp.IsFinal {
		if transcript != "" {
			c.confirmed = joinSegments(c.confirmed, transcript)
		}
		c.pending = ""
	} else {
		c.pending = transcript
	}
	observable := joinSegments(c.confirmed, c.pending)
	c.connMu.Unlock()

	if options.ResultCallback != nil {
		options.ResultCallback(speechtotext.Result{
			Text:       observable,
			Confidence: alternative.Confidence,
		})
	}
}

func joinSegments(confirmed, tail string) string {
	if confirmed == "" {
		return tail
	}
	if tail == "" {
		return confirmed
	}
	return confirmed + " " + tail
}
