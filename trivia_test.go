package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageRecorder struct {
	mu   sync.Mutex
	msgs []any
}

func (r *messageRecorder) emit(msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, msg)
}

func (r *messageRecorder) messages() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]any, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *messageRecorder) results() []ResultMessage {
	var results []ResultMessage
	for _, msg := range r.messages() {
		if result, ok := msg.(ResultMessage); ok {
			results = append(results, result)
		}
	}
	return results
}

func runSession(t *testing.T, s *clueSession) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		s.run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("clue session did not reach a terminal state")
	}
}

func TestSessionGuard(t *testing.T) {
	guard := newSessionGuard()

	require.True(t, guard.tryAdmit("alpha"))
	assert.False(t, guard.tryAdmit("alpha"))

	// Other channels are unaffected.
	assert.True(t, guard.tryAdmit("beta"))

	guard.release("alpha")
	assert.True(t, guard.tryAdmit("alpha"))

	// Releasing an unknown channel is harmless.
	guard.release("gamma")
}

func TestClueSessionResolvesCorrectAnswer(t *testing.T) {
	rec := &messageRecorder{}
	s := newClueSession(testClue(), 0.65, 5*time.Second, rec.emit)

	s.input <- answerEvent{username: "alice", text: "What is Mount Everest"}
	runSession(t, s)

	assert.Equal(t, stateResolved, s.state)

	results := rec.results()
	require.Len(t, results, 1)
	assert.Equal(t, "correct", results[0].Outcome)
	assert.Equal(t, "alice", results[0].Username)
	assert.Equal(t, "Mount Everest", results[0].Answer)
}

func TestClueSessionIncorrectThenTimeout(t *testing.T) {
	rec := &messageRecorder{}
	s := newClueSession(testClue(), 0.65, 10*time.Millisecond, rec.emit)

	s.input <- answerEvent{username: "bob", text: "what is k2"}
	runSession(t, s)

	assert.Equal(t, stateTimedOut, s.state)

	results := rec.results()
	require.Len(t, results, 2)
	assert.Equal(t, "incorrect", results[0].Outcome)
	assert.Equal(t, "bob", results[0].Username)
	assert.Equal(t, "timeout", results[1].Outcome)
	assert.Equal(t, "Mount Everest", results[1].Answer)
}

func TestClueSessionNeedsSpecificity(t *testing.T) {
	clue := testClue()
	clue.Answer = "The Matrix"

	rec := &messageRecorder{}
	s := newClueSession(clue, 0.65, 10*time.Millisecond, rec.emit)

	s.input <- answerEvent{username: "carol", text: "what is the"}
	runSession(t, s)

	assert.Equal(t, stateTimedOut, s.state)

	results := rec.results()
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].Outcome)
	assert.Equal(t, "Be more specific, carol.", results[0].Message)
	assert.Equal(t, "timeout", results[1].Outcome)
}

func TestClueSessionSkip(t *testing.T) {
	rec := &messageRecorder{}
	s := newClueSession(testClue(), 0.65, 5*time.Second, rec.emit)

	s.input <- answerEvent{username: "dave", text: "skip clue"}
	runSession(t, s)

	assert.Equal(t, stateSkipped, s.state)

	results := rec.results()
	require.Len(t, results, 1)
	assert.Equal(t, "skipped", results[0].Outcome)
	assert.Equal(t, "Ok.", results[0].Message)
}

func TestClueSessionTimeoutRevealsAnswer(t *testing.T) {
	rec := &messageRecorder{}
	s := newClueSession(testClue(), 0.65, 10*time.Millisecond, rec.emit)

	runSession(t, s)

	assert.Equal(t, stateTimedOut, s.state)

	results := rec.results()
	require.Len(t, results, 1)
	assert.Equal(t, "timeout", results[0].Outcome)
	assert.Equal(t, "Mount Everest", results[0].Answer)
	assert.Contains(t, results[0].Message, "Mount Everest")
}

func testConfig() *Config {
	return &Config{
		answerTimeLimit:     5 * time.Second,
		clueIDMax:           1000,
		clueRetries:         20,
		playerTimeout:       time.Minute,
		port:                8080,
		sessionTimeout:      time.Hour,
		similarityThreshold: 0.65,
	}
}

// nextMessage drains the client's send channel until a message of type T
// arrives, failing the test if none does in time.
func nextMessage[T any](t *testing.T, ch chan any) T {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-ch:
			if m, ok := msg.(T); ok {
				return m
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for a %T", zero)
			return zero
		}
	}
}

func newTestChannel(t *testing.T, cfg *Config, provider clueProvider) (*ChannelManager, *Hub, *Client) {
	t.Helper()

	cm := newChannelManager(provider, 0)
	hub := cm.getHub(cfg, "testchan")

	client := &Client{
		send:     make(chan any, 64),
		playerID: "cookie-1",
	}

	hub.register <- client

	info := nextMessage[SessionInfoMessage](t, client.send)
	assert.False(t, info.ClueActive)
	assert.False(t, info.IsExisting)

	hub.joins <- joinRequest{
		client: client,
		msg:    ClientMessage{Type: "join", Username: "alice"},
	}

	// The register broadcast may deliver an empty roster first; wait for the
	// one that includes the join.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-client.send:
			if players, ok := msg.(PlayerListMessage); ok && len(players.Players) > 0 {
				require.Contains(t, players.Players, "alice")
				return cm, hub, client
			}
		case <-deadline:
			t.Fatal("timed out waiting for the roster to include the joined player")
		}
	}
}

func TestHubResolvesCorrectAnswer(t *testing.T) {
	cfg := testConfig()
	cm, hub, client := newTestChannel(t, cfg, &fakeClueProvider{clue: testClue()})

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}

	clue := nextMessage[ClueMessage](t, client.send)
	assert.Equal(t, "GEOGRAPHY", clue.Category)
	assert.Equal(t, 400, clue.Value)
	assert.Equal(t, "03/97", clue.Aired)

	hub.answers <- answerEvent{client: client, text: "what is mount everest"}

	chat := nextMessage[ChatMessage](t, client.send)
	assert.Equal(t, "alice", chat.Username)
	assert.Equal(t, "what is mount everest", chat.Text)

	result := nextMessage[ResultMessage](t, client.send)
	assert.Equal(t, "correct", result.Outcome)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, "Mount Everest", result.Answer)

	nextMessage[NextClueMessage](t, client.send)

	// The channel is free again once the next-clue offer goes out.
	require.True(t, cm.guard.tryAdmit("testchan"))
	cm.guard.release("testchan")
}

func TestHubRejectsSecondClue(t *testing.T) {
	cfg := testConfig()
	_, hub, client := newTestChannel(t, cfg, &fakeClueProvider{clue: testClue()})

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}
	nextMessage[ClueMessage](t, client.send)

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}

	denied := nextMessage[SimpleMessage](t, client.send)
	assert.Equal(t, "There's already an active clue in this channel!", denied.Message)
}

func TestHubTimesOutAndRevealsAnswer(t *testing.T) {
	cfg := testConfig()
	cfg.answerTimeLimit = 10 * time.Millisecond

	cm, hub, client := newTestChannel(t, cfg, &fakeClueProvider{clue: testClue()})

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}
	nextMessage[ClueMessage](t, client.send)

	result := nextMessage[ResultMessage](t, client.send)
	assert.Equal(t, "timeout", result.Outcome)
	assert.Equal(t, "Mount Everest", result.Answer)

	nextMessage[NextClueMessage](t, client.send)

	require.True(t, cm.guard.tryAdmit("testchan"))
	cm.guard.release("testchan")
}

func TestHubSkipsClue(t *testing.T) {
	cfg := testConfig()
	_, hub, client := newTestChannel(t, cfg, &fakeClueProvider{clue: testClue()})

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}
	nextMessage[ClueMessage](t, client.send)

	hub.answers <- answerEvent{client: client, text: "skip clue"}

	result := nextMessage[ResultMessage](t, client.send)
	assert.Equal(t, "skipped", result.Outcome)
	assert.Equal(t, "Ok.", result.Message)

	nextMessage[NextClueMessage](t, client.send)
}

func TestHubReportsProviderFailure(t *testing.T) {
	cfg := testConfig()
	cfg.clueRetries = 2

	// Clues that never pass the validity check exhaust the retry budget.
	provider := &fakeClueProvider{clue: &Clue{Answer: "a", Question: "q", InvalidCount: 1}}
	cm, hub, client := newTestChannel(t, cfg, provider)

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}

	failure := nextMessage[SimpleMessage](t, client.send)
	assert.Equal(t, "Failed to get a random clue, maybe the service is down?", failure.Message)

	// Failure still frees the channel.
	assert.Eventually(t, func() bool {
		if cm.guard.tryAdmit("testchan") {
			cm.guard.release("testchan")
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubDirectLookupValidity(t *testing.T) {
	cfg := testConfig()

	linkClue := testClue()
	linkClue.Question = "seen at j-archive only"

	_, hub, client := newTestChannel(t, cfg, &fakeClueProvider{clue: linkClue})

	// Direct lookups allow link clues, so this one is served.
	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue", ClueID: 42}}
	nextMessage[ClueMessage](t, client.send)
}

func TestHubIgnoresAnswersFromUnjoinedPlayers(t *testing.T) {
	cfg := testConfig()
	_, hub, client := newTestChannel(t, cfg, &fakeClueProvider{clue: testClue()})

	stranger := &Client{
		send:     make(chan any, 64),
		playerID: "cookie-2",
	}
	hub.register <- stranger
	nextMessage[PlayerListMessage](t, stranger.send)

	hub.clues <- clueRequest{client: client, msg: ClientMessage{Type: "clue"}}
	nextMessage[ClueMessage](t, client.send)

	// The stranger never joined, so their attempt is dropped without an echo.
	hub.answers <- answerEvent{client: stranger, text: "what is mount everest"}

	hub.answers <- answerEvent{client: client, text: "what is mount everest"}
	result := nextMessage[ResultMessage](t, client.send)
	assert.Equal(t, "correct", result.Outcome)
	assert.Equal(t, "alice", result.Username)
}
