package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentssh/agentssh/internal/activity"
)

func TestDoneFeed_NotifyDoesNotWaitForDashboard(t *testing.T) {
	feed := NewDoneFeed()
	var sounds []string
	notifier := activity.Multi{
		activity.NotifierFunc(func(name string) { sounds = append(sounds, name) }),
		feed,
	}

	// Nothing drains the feed, as while the dashboard is suspended by attach.
	returned := make(chan struct{})
	go func() {
		notifier.Notify("agentssh_codex_1")
		notifier.Notify("agentssh_aider_2")
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on an undrained feed")
	}
	assert.Equal(t, []string{"agentssh_codex_1", "agentssh_aider_2"}, sounds)

	first, ok := listenForDone(feed.Messages())().(AgentDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "agentssh_codex_1", first.Session)
	second, ok := listenForDone(feed.Messages())().(AgentDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "agentssh_aider_2", second.Session)
}

func TestDoneFeed_FullBacklogDrops(t *testing.T) {
	feed := NewDoneFeed()
	for i := 0; i < doneFeedSize+3; i++ {
		feed.Notify("agentssh_codex_1")
	}
	assert.Len(t, feed.Messages(), doneFeedSize)
}

func TestHome_DrainsDoneFeedAfterEachCompletion(t *testing.T) {
	env := newTestHome(t)
	env.load()
	feed := NewDoneFeed()
	env.home.deps.Done = feed.Messages()
	feed.Notify("agentssh_aider_100")
	feed.Notify("agentssh_codex_200")

	msg := listenForDone(env.home.deps.Done)()
	_, cmd := env.home.Update(msg)
	assert.Equal(t, "fix login bug finished", env.home.status)
	require.NotNil(t, cmd)

	env.home.Update(cmd())
	assert.Equal(t, "write docs finished", env.home.status)
	assert.Contains(t, env.home.completions, "agentssh_aider_100")
	assert.Contains(t, env.home.completions, "agentssh_codex_200")
}

func TestListenForDone_NilFeed(t *testing.T) {
	assert.Nil(t, listenForDone(nil))
}
