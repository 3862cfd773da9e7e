package events

const (
	// KindVoiceStatusChanged identifies session lifecycle transitions.
	KindVoiceStatusChanged Kind = "voice_session.status_changed"
	// KindVoiceResult identifies transcript snapshots, interim or final.
	KindVoiceResult Kind = "voice_session.result"
	// KindVoiceAudioLevel identifies capture amplitude updates.
	KindVoiceAudioLevel Kind = "voice_session.audio_level"
	// KindVoiceCompleted identifies successful session completion.
	KindVoiceCompleted Kind = "voice_session.completed"
	// KindVoiceFailed identifies session failure.
	KindVoiceFailed Kind = "voice_session.failed"
)

// VoiceStatusChanged marks a session lifecycle transition.
type VoiceStatusChanged struct {
	Base
	Status string
}

// NewVoiceStatusChanged creates a status transition event.
func NewVoiceStatusChanged(status string) VoiceStatusChanged {
	return VoiceStatusChanged{Base: NewBase(KindVoiceStatusChanged), Status: status}
}

// VoiceResult carries the transcript as currently reconciled. Interim
// snapshots may shrink or be rewritten between events; a final result is
// immutable.
type VoiceResult struct {
	Base
	Text    string
	IsFinal bool
}

// NewVoiceResult creates a transcript snapshot event.
func NewVoiceResult(text string, isFinal bool) VoiceResult {
	return VoiceResult{Base: NewBase(KindVoiceResult), Text: text, IsFinal: isFinal}
}

// VoiceAudioLevel carries a 0-100 capture amplitude estimate.
type VoiceAudioLevel struct {
	Base
	Level int
}

// NewVoiceAudioLevel creates an amplitude update event.
func NewVoiceAudioLevel(level int) VoiceAudioLevel {
	return VoiceAudioLevel{Base: NewBase(KindVoiceAudioLevel), Level: level}
}

// VoiceCompleted carries the terminal transcript for the session.
type VoiceCompleted struct {
	Base
	Transcript string
}

// NewVoiceCompleted creates a session completion event.
func NewVoiceCompleted(transcript string) VoiceCompleted {
	return VoiceCompleted{Base: NewBase(KindVoiceCompleted), Transcript: transcript}
}

// VoiceFailed carries the error that ended the session.
type VoiceFailed struct {
	Base
	Err error
}

// NewVoiceFailed creates a session failure event.
func NewVoiceFailed(err error) VoiceFailed {
	return VoiceFailed{Base: NewBase(KindVoiceFailed), Err: err}
}
