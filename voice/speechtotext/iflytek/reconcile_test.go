package iflytek

import (
	"errors"
	"testing"

	"github.com/waypointhq/waypoint-core/voice/speechtotext"
)

func word(bg int, fragments ...string) wordEntry {
	entry := wordEntry{Bg: bg}
	for _, fragment := range fragments {
		entry.Cw = append(entry.Cw, candidateWord{W: fragment})
	}
	return entry
}

func resultFrame(status int, entries ...wordEntry) serverFrame {
	data := &frameData{Status: status}
	if entries != nil {
		data.Result = &serverResult{Ws: entries}
	}
	return serverFrame{Data: data}
}

func feed(t *testing.T, frames ...serverFrame) (transcriptState, []frameOutcome) {
	t.Helper()

	var state transcriptState
	var outcomes []frameOutcome
	for i, frame := range frames {
		next, outcome, err := reconcile(state, frame)
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		state = next
		outcomes = append(outcomes, outcome)
	}
	return state, outcomes
}

func TestReconcileReplacesPendingSegmentOnEveryRevision(t *testing.T) {
	t.Parallel()

	state, outcomes := feed(t,
		resultFrame(1, word(10, "he")),
		resultFrame(1, word(10, "hell")),
		resultFrame(1, word(10, "hello")),
	)

	if state.confirmed != "" {
		t.Fatalf("revisions must not confirm text, got %q", state.confirmed)
	}
	if state.pending != "hello" {
		t.Fatalf("expected pending to be wholly replaced, got %q", state.pending)
	}

	want := []string{"he", "hell", "hello"}
	for i, outcome := range outcomes {
		if outcome.result == nil || outcome.result.Text != want[i] {
			t.Fatalf("frame %d: expected result %q, got %+v", i, want[i], outcome.result)
		}
		if outcome.result.IsFinal {
			t.Fatalf("frame %d: revision must not be final", i)
		}
	}
}

func TestReconcileCommitsPendingExactlyOnceAtSegmentBoundary(t *testing.T) {
	t.Parallel()

	state, outcomes := feed(t,
		resultFrame(1, word(3, "first segment")),
		resultFrame(1, word(0, "second")),
		resultFrame(1, word(7, "second segment")),
	)

	if state.confirmed != "first segment" {
		t.Fatalf("expected the prior pending segment committed exactly once, got %q", state.confirmed)
	}
	if state.pending != "second segment" {
		t.Fatalf("expected the new segment pending, got %q", state.pending)
	}

	// Revisions of the new segment carry its non-zero offset and must not
	// commit it again.
	if got := outcomes[2].result.Text; got != "first segmentsecond segment" {
		t.Fatalf("unexpected observable transcript: %q", got)
	}
}

func TestReconcileScriptedSessionRoundTrip(t *testing.T) {
	t.Parallel()

	// Segment A partial x3, segment B (new, offset 0) partial x2, session end.
	state, outcomes := feed(t,
		resultFrame(1, word(2, "今")),
		resultFrame(1, word(2, "今天")),
		resultFrame(1, word(2, "今天去")),
		resultFrame(1, word(0, "上")),
		resultFrame(1, word(5, "上海")),
		resultFrame(2),
	)

	last := outcomes[len(outcomes)-1]
	if !last.completed || last.final != "今天去上海" {
		t.Fatalf("expected final transcript %q, got %+v", "今天去上海", last)
	}
	if state.pending != "" {
		t.Fatalf("expected pending cleared after the terminal frame, got %q", state.pending)
	}

	finals := 0
	for _, outcome := range outcomes {
		if outcome.result != nil && outcome.result.IsFinal {
			finals++
		}
	}
	if finals != 1 {
		t.Fatalf("expected exactly one final result, got %d", finals)
	}
}

// Pins the prefer-pending rule: a terminal frame without word content
// finalizes with the last pending revision, and one with content does not
// override a pending revision.
func TestReconcileTerminalFramePrefersPendingText(t *testing.T) {
	t.Parallel()

	_, outcomes := feed(t,
		resultFrame(1, word(4, "hello world")),
		resultFrame(2),
	)
	if got := outcomes[1].final; got != "hello world" {
		t.Fatalf("expected empty terminal frame to keep pending text, got %q", got)
	}

	_, outcomes = feed(t,
		resultFrame(1, word(4, "hello world")),
		resultFrame(2, word(0, "。")),
	)
	if got := outcomes[1].final; got != "hello world" {
		t.Fatalf("expected pending text preferred over terminal punctuation, got %q", got)
	}

	// With nothing pending the terminal frame's own text is all there is.
	_, outcomes = feed(t,
		resultFrame(2, word(0, "嗯")),
	)
	if got := outcomes[0].final; got != "嗯" {
		t.Fatalf("expected terminal text adopted when nothing is pending, got %q", got)
	}
}

func TestReconcileNonZeroCodeIsFatal(t *testing.T) {
	t.Parallel()

	state := transcriptState{confirmed: "kept", pending: "tail"}
	_, _, err := reconcile(state, serverFrame{Code: 10165, Message: "invalid app id"})

	var protocolErr *speechtotext.ProtocolError
	if !errors.As(err, &protocolErr) {
		t.Fatalf("expected a protocol error, got %v", err)
	}
	if protocolErr.Code != 10165 || protocolErr.Message != "invalid app id" {
		t.Fatalf("expected the server code surfaced verbatim, got %+v", protocolErr)
	}
}

func TestReconcileIgnoresFramesWithoutPayload(t *testing.T) {
	t.Parallel()

	state := transcriptState{confirmed: "a", pending: "b"}

	next, outcome, err := reconcile(state, serverFrame{})
	if err != nil || outcome.result != nil || next != state {
		t.Fatalf("expected a data-less frame to be a no-op, got %+v, %+v, %v", next, outcome, err)
	}

	next, outcome, err = reconcile(state, resultFrame(1))
	if err != nil || outcome.result != nil || next != state {
		t.Fatalf("expected a result-less frame to be a no-op, got %+v, %+v, %v", next, outcome, err)
	}
}

func TestReconcileConcatenatesBestCandidatesAcrossWordEntries(t *testing.T) {
	t.Parallel()

	_, outcomes := feed(t,
		resultFrame(1, word(5, "hel", "hal"), word(9, "lo", "low")),
	)
	if got := outcomes[0].result.Text; got != "hello" {
		t.Fatalf("expected best candidates concatenated, got %q", got)
	}
}
