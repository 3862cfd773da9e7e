package audio

import "context"

// Source is a live microphone feed delivering fixed-cadence linear16 chunks
// plus an advisory amplitude level per chunk.
type Source interface {
	// StartCapture begins delivering chunks. onChunk receives raw
	// little-endian PCM; onLevel receives a 0-100 amplitude estimate on the
	// same cadence. Either callback may be nil.
	StartCapture(ctx context.Context, onChunk func(chunk []byte), onLevel func(level int)) error
	StopCapture() error
	Close()
	EncodingInfo() EncodingInfo
}
