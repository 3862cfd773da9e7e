//go:build cgo

// Command waypoint-voice is a terminal client for dictating trips and
// expenses. It captures microphone audio, streams it to the configured
// recognition backend and renders the transcript live, pending words
// dimmed until the recognizer confirms them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/waypointhq/waypoint-core/config"
	"github.com/waypointhq/waypoint-core/voice"
	"github.com/waypointhq/waypoint-core/voice/audio/miniaudio"
	"github.com/waypointhq/waypoint-core/voice/speechtotext/deepgram"
	"github.com/waypointhq/waypoint-core/voice/speechtotext/iflytek"
)

var (
	configPath = flag.String("config", "", "path to the configuration file")
	tokenURL   = flag.String("token-url", "", "waypointd voice token endpoint, used instead of local credentials")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "waypoint-voice: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	transcriber, err := buildTranscriber(cfg)
	if err != nil {
		return err
	}

	mic, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("%w: %v", voice.ErrUnsupported, err)
	}

	opts := []voice.ServiceOption{
		voice.WithAudioSource(mic),
		voice.WithTranscriber(transcriber),
	}
	if cfg.Voice.Buffered {
		opts = append(opts, voice.WithBufferedUpload())
	}
	if cfg.Voice.MaxDurationSeconds > 0 {
		opts = append(opts, voice.WithMaxDuration(time.Duration(cfg.Voice.MaxDurationSeconds)*time.Second))
	}

	service, err := voice.NewService(opts...)
	if err != nil {
		return err
	}
	defer service.Destroy()

	_, err = tea.NewProgram(newModel(service, cfg.Voice.Provider)).Run()
	return err
}

func buildTranscriber(cfg *config.Config) (voice.Transcriber, error) {
	switch cfg.Voice.Provider {
	case "deepgram":
		return deepgram.NewTranscriptionClient(
			deepgram.WithAPIKey(cfg.Voice.Deepgram.APIKey),
		), nil
	case "", "iflytek":
		opts := []iflytek.Option{}
		if cfg.Voice.Language != "" {
			opts = append(opts, iflytek.WithLanguage(cfg.Voice.Language))
		}
		switch {
		case *tokenURL != "":
			opts = append(opts, iflytek.WithResolver(iflytek.NewTokenResolver(*tokenURL)))
		case cfg.Voice.IFlytek.AppID != "":
			opts = append(opts, iflytek.WithCredentials(iflytek.Credentials{
				AppID:     cfg.Voice.IFlytek.AppID,
				APIKey:    cfg.Voice.IFlytek.APIKey,
				APISecret: cfg.Voice.IFlytek.APISecret,
			}))
		default:
			return nil, fmt.Errorf("no recognition credentials configured and no token endpoint given")
		}
		return iflytek.NewTranscriptionClient(opts...), nil
	default:
		return nil, fmt.Errorf("unknown voice provider %q", cfg.Voice.Provider)
	}
}

type (
	voiceStatusMsg    voice.Status
	voiceResultMsg    struct{ text string }
	voiceLevelMsg     int
	voiceCompletedMsg string
	voiceFailedMsg    struct{ err error }
)

const levelHistory = 48

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	waveformStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	pendingStyle    = lipgloss.NewStyle().Faint(true)
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle       = lipgloss.NewStyle().Faint(true)
)

type model struct {
	service  *voice.Service
	provider string
	events   chan tea.Msg

	status     voice.Status
	live       string
	transcript []string
	levels     []int
	err        error
	width      int
	spin       spinner.Model
}

func newModel(service *voice.Service, provider string) model {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	if provider == "" {
		provider = "iflytek"
	}
	return model{
		service:  service,
		provider: provider,
		events:   make(chan tea.Msg, 128),
		status:   voice.StatusIdle,
		levels:   make([]int, levelHistory),
		width:    80,
		spin:     spin,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForEvent(m.events))
}

func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

// send never blocks. Audio level events arrive faster than the terminal
// repaints, so dropping under backpressure is preferable to stalling the
// capture callback.
func send(events chan tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.service.Cancel()
			return m, tea.Quit
		case " ", "r":
			return m.toggleRecording()
		case "esc":
			if m.status == voice.StatusRecording || m.status == voice.StatusRecognizing {
				m.service.Cancel()
				m.status = voice.StatusIdle
				m.live = ""
				m.levels = make([]int, levelHistory)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case voiceStatusMsg:
		m.status = voice.Status(msg)
		return m, waitForEvent(m.events)

	case voiceResultMsg:
		m.live = msg.text
		return m, waitForEvent(m.events)

	case voiceLevelMsg:
		m.levels = append(m.levels[1:], int(msg))
		return m, waitForEvent(m.events)

	case voiceCompletedMsg:
		if string(msg) != "" {
			m.transcript = append(m.transcript, string(msg))
		}
		m.live = ""
		m.levels = make([]int, levelHistory)
		return m, waitForEvent(m.events)

	case voiceFailedMsg:
		m.err = msg.err
		m.live = ""
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) toggleRecording() (tea.Model, tea.Cmd) {
	switch m.status {
	case voice.StatusRecording:
		go m.service.Stop(context.Background())
	case voice.StatusRecognizing:
		// Recognition is draining, wait for completion.
	default:
		m.err = nil
		events := m.events
		err := m.service.Start(context.Background(),
			voice.WithStatusCallback(func(status voice.Status) {
				send(events, voiceStatusMsg(status))
			}),
			voice.WithResultCallback(func(text string, isFinal bool) {
				send(events, voiceResultMsg{text: text})
			}),
			voice.WithAudioLevelCallback(func(level int) {
				send(events, voiceLevelMsg(level))
			}),
			voice.WithCompletionCallback(func(transcript string) {
				send(events, voiceCompletedMsg(transcript))
			}),
			voice.WithSessionErrorCallback(func(err error) {
				send(events, voiceFailedMsg{err: err})
			}),
		)
		if err != nil {
			m.err = err
		}
	}
	return m, nil
}

var waveformRunes = []rune("▁▂▃▄▅▆▇█")

func (m model) waveform() string {
	var b strings.Builder
	for _, level := range m.levels {
		idx := level * len(waveformRunes) / 101
		b.WriteRune(waveformRunes[idx])
	}
	return waveformStyle.Render(b.String())
}

func (m model) statusLine() string {
	switch m.status {
	case voice.StatusRecording:
		return statusStyle.Render("● recording, press space to stop")
	case voice.StatusRecognizing:
		return m.spin.View() + statusStyle.Render(" recognizing")
	case voice.StatusError:
		return statusStyle.Render("press space to retry")
	default:
		return statusStyle.Render("press space to record")
	}
}

func (m model) View() string {
	width := m.width
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("waypoint voice") + statusStyle.Render("  ("+m.provider+")") + "\n\n")
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(m.waveform() + "\n\n")

	for _, line := range m.transcript {
		b.WriteString(wordwrap.String(transcriptStyle.Render(line), width) + "\n")
	}
	if m.live != "" {
		b.WriteString(wordwrap.String(pendingStyle.Render(m.live), width) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(wordwrap.String(m.err.Error(), width)) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("space record · esc cancel · q quit") + "\n")
	return b.String()
}
