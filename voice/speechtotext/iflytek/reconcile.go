package iflytek

import "github.com/waypointhq/waypoint-core/voice/speechtotext"

// transcriptState accumulates the session transcript across inbound frames.
// confirmed only ever grows; pending is wholly replaced by each revision of
// the in-progress segment until a boundary or the terminal frame commits it.
type transcriptState struct {
	confirmed string
	pending   string
}

// frameOutcome is what one inbound frame produces: at most one result update
// and, on the terminal frame, a completed transcript.
type frameOutcome struct {
	result    *speechtotext.Result
	completed bool
	final     string
}

// reconcile folds one server frame into the transcript state.
//
// The server revises the in-progress segment by resending its full text, so a
// frame replaces pending rather than appending. The single subtle rule is the
// segment boundary: when a frame's leading word has begin-offset zero while a
// pending segment exists, that pending text is committed to confirmed exactly
// once before the frame's text is adopted. Dropping the check would either
// lose the earlier segment (overwritten) or duplicate it (appended twice).
//
// The terminal frame (data.status == 2) commits whatever is pending and
// clears it. Its own word content is often empty or punctuation-only, so the
// pending segment text is preferred over it; the terminal frame's text is
// adopted only when nothing is pending (prefer-pending rule).
func reconcile(state transcriptState, frame serverFrame) (transcriptState, frameOutcome, error) {
	if frame.Code != 0 {
		return state, frameOutcome{}, &speechtotext.ProtocolError{Code: frame.Code, Message: frame.Message}
	}
	if frame.Data == nil {
		return state, frameOutcome{}, nil
	}

	result := frame.Data.Result

	if frame.Data.Status == frameStatusLast {
		// Prefer-pending rule: the terminal frame's own word content is often
		// empty or punctuation-only, so the last pending revision wins; the
		// terminal text is only adopted when nothing is pending.
		if state.pending == "" {
			state.pending = result.text()
		}
		state.confirmed += state.pending
		state.pending = ""
		return state, frameOutcome{
			result:    &speechtotext.Result{Text: state.confirmed, IsFinal: true},
			completed: true,
			final:     state.confirmed,
		}, nil
	}

	if result == nil {
		return state, frameOutcome{}, nil
	}

	if result.startsNewSegment() && state.pending != "" {
		state.confirmed += state.pending
	}
	state.pending = result.text()

	return state, frameOutcome{
		result: &speechtotext.Result{Text: state.confirmed + state.pending},
	}, nil
}
