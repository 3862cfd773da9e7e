// Package events defines the typed voice session event contract.
//
// Event kinds live under the voice_session namespace:
//
//   - VoiceStatusChanged (voice_session.status_changed): session moved to a
//     new lifecycle status.
//   - VoiceResult (voice_session.result): transcript snapshot. Interim
//     snapshots are mutable and may be rewritten by later events; the final
//     snapshot is immutable and emitted exactly once per session.
//   - VoiceAudioLevel (voice_session.audio_level): advisory 0-100 capture
//     amplitude, for waveform UIs.
//   - VoiceCompleted (voice_session.completed): session finished with a
//     terminal transcript.
//   - VoiceFailed (voice_session.failed): session ended with an error.
//
// A session emits either completed or failed, never both.
package events
