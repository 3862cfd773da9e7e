package voice

import "github.com/waypointhq/waypoint-core/voice/events"

type eventEmitter func(events.Event)

func newCallbackEventEmitter(opts SessionOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.VoiceStatusChanged:
			if opts.onStatusChanged != nil {
				opts.onStatusChanged(Status(typedEvent.Status))
			}
		case events.VoiceResult:
			if opts.onResult != nil {
				opts.onResult(typedEvent.Text, typedEvent.IsFinal)
			}
		case events.VoiceAudioLevel:
			if opts.onAudioLevel != nil {
				opts.onAudioLevel(typedEvent.Level)
			}
		case events.VoiceCompleted:
			if opts.onCompletion != nil {
				opts.onCompletion(typedEvent.Transcript)
			}
		case events.VoiceFailed:
			if opts.onError != nil {
				opts.onError(typedEvent.Err)
			}
		}
	}
}
