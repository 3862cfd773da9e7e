package deepgram

import (
	"testing"

	"github.com/waypointhq/waypoint-core/voice/audio"
	"github.com/waypointhq/waypoint-core/voice/speechtotext"
)

func resultsMessage(transcript string, isFinal bool) []byte {
	finalField := "false"
	if isFinal {
		finalField = "true"
	}
	return []byte(`{"type":"Results","is_final":` + finalField +
		`,"channel":{"alternatives":[{"transcript":"` + transcript + `","confidence":0.92}]}}`)
}

func TestProcessMessageAggregatesConfirmedAndPending(t *testing.T) {
	t.Parallel()

	client := NewTranscriptionClient(WithAPIKey("test"))
	var texts []string
	options := speechtotext.TranscriptionOptions{
		ResultCallback: func(result speechtotext.Result) {
			texts = append(texts, result.Text)
			if result.IsFinal {
				t.Fatalf("interim aggregation must not produce a final result")
			}
		},
	}

	client.processMessage(resultsMessage("going to", false), options)
	client.processMessage(resultsMessage("going to shanghai", false), options)
	client.processMessage(resultsMessage("going to shanghai", true), options)
	client.processMessage(resultsMessage("tomorrow", false), options)

	want := []string{
		"going to",
		"going to shanghai",
		"going to shanghai",
		"going to shanghai tomorrow",
	}
	if len(texts) != len(want) {
		t.Fatalf("expected %d results, got %v", len(want), texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("result %d: expected %q, got %q", i, want[i], texts[i])
		}
	}
}

func TestProcessMessageIgnoresEmptyFinals(t *testing.T) {
	t.Parallel()

	client := NewTranscriptionClient(WithAPIKey("test"))
	options := speechtotext.TranscriptionOptions{}

	client.processMessage(resultsMessage("hello", true), options)
	client.processMessage(resultsMessage("", true), options)

	client.connMu.Lock()
	defer client.connMu.Unlock()
	if client.confirmed != "hello" {
		t.Fatalf("expected an empty final to leave the transcript alone, got %q", client.confirmed)
	}
}

func TestProcessMessageIgnoresNonResultMessages(t *testing.T) {
	t.Parallel()

	client := NewTranscriptionClient(WithAPIKey("test"))
	called := false
	options := speechtotext.TranscriptionOptions{
		ResultCallback: func(speechtotext.Result) { called = true },
	}

	client.processMessage([]byte(`{"type":"Metadata"}`), options)
	client.processMessage([]byte(`not json`), options)

	if called {
		t.Fatalf("expected no results for non-transcript messages")
	}
}

func TestConvertEncoding(t *testing.T) {
	t.Parallel()

	converted, err := convertEncoding(audio.GetDefaultEncodingInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if converted.SampleRate != 16000 || converted.Format != encodingLinear16 {
		t.Fatalf("unexpected conversion: %+v", converted)
	}

	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 11025, Format: audio.EncodingLinear16}); err == nil {
		t.Fatalf("expected an unsupported sample rate error")
	}
	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingMulaw}); err == nil {
		t.Fatalf("expected mulaw above 8kHz rejected")
	}
}
