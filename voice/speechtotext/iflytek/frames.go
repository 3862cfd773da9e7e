package iflytek

// Wire protocol frames for the IAT websocket. Outbound audio frames carry a
// status marker: 0 opens the session (with business parameters), 1 is a
// middle frame, 2 ends the audio stream. Inbound frames carry a session-level
// status in data.status with the same terminal value 2.

const (
	frameStatusFirst = 0
	frameStatusCont  = 1
	frameStatusLast  = 2

	audioFormat   = "audio/L16;rate=16000"
	audioEncoding = "raw"
)

type audioPayload struct {
	Status   int    `json:"status"`
	Format   string `json:"format"`
	Encoding string `json:"encoding"`
	Audio    string `json:"audio"`
}

type openingFrame struct {
	Common   commonParams   `json:"common"`
	Business businessParams `json:"business"`
	Data     audioPayload   `json:"data"`
}

type commonParams struct {
	AppID string `json:"app_id"`
}

type businessParams struct {
	Language string `json:"language"`
	Domain   string `json:"domain"`
	Accent   string `json:"accent"`
	// VadEOS is the server-side end-of-speech timeout in milliseconds.
	VadEOS int `json:"vad_eos"`
	// Dwa set to "wpgs" enables dynamic correction: the server may revise a
	// segment's transcription across frames before committing it.
	Dwa string `json:"dwa,omitempty"`
	// Ptt enables punctuation in results.
	Ptt int `json:"ptt"`
	// Nunum enables number normalization.
	Nunum int `json:"nunum"`
}

type audioFrame struct {
	Data audioPayload `json:"data"`
}

type serverFrame struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Sid     string     `json:"sid"`
	Data    *frameData `json:"data"`
}

type frameData struct {
	Status int           `json:"status"`
	Result *serverResult `json:"result"`
}

type serverResult struct {
	Ws []wordEntry `json:"ws"`
}

type wordEntry struct {
	// Bg is the word's begin offset within the utterance; a zero offset on
	// the leading word marks the start of a new segment.
	Bg int `json:"bg"`
	Cw []candidateWord `json:"cw"`
}

type candidateWord struct {
	W string `json:"w"`
}

// text concatenates the best candidate of every word entry, forming the
// frame's complete text for the current segment.
func (r *serverResult) text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, entry := range r.Ws {
		if len(entry.Cw) > 0 {
			out += entry.Cw[0].W
		}
	}
	return out
}

// startsNewSegment reports whether the frame's leading word begins at offset
// zero, the boundary signal that the previous segment will not be revised
// again.
func (r *serverResult) startsNewSegment() bool {
	return r != nil && len(r.Ws) > 0 && r.Ws[0].Bg == 0
}
