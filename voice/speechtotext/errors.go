package speechtotext

import "fmt"

// ProtocolError is a non-zero response code from the recognition service. The
// code maps to server-defined meanings, so it is surfaced verbatim rather
// than folded into a generic failure.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("recognition error: %s (%d)", e.Message, e.Code)
}
