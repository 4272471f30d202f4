package ui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const doneFeedSize = 64

// DoneFeed carries finished-agent notifications from the activity detector
// to the dashboard. Notify never blocks, so the detector keeps polling while
// the dashboard is suspended by an attach; Home drains the backlog once it
// resumes.
type DoneFeed struct {
	ch  chan AgentDoneMsg
	now func() time.Time
}

func NewDoneFeed() *DoneFeed {
	return &DoneFeed{ch: make(chan AgentDoneMsg, doneFeedSize), now: time.Now}
}

// Notify queues a completion for sessionName, dropping it if the backlog is
// full.
func (f *DoneFeed) Notify(sessionName string) {
	select {
	case f.ch <- AgentDoneMsg{Session: sessionName, At: f.now()}:
	default:
		uiLog.Warn("done_feed_full", slog.String("session", sessionName))
	}
}

// Messages is the channel Home listens on.
func (f *DoneFeed) Messages() <-chan AgentDoneMsg { return f.ch }

func listenForDone(ch <-chan AgentDoneMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
