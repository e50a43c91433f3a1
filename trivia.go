// Cluebox Trivia Game
//
// Anyone with a channel URL joins that channel over a websocket and shares
// one stream of clues. A player requests a clue (random, or by ID), the clue
// is broadcast to the channel, and everyone races to respond in question form
// ("what is ...", "who's ...") before time runs out. Answers are judged with
// tolerance for phrasing: close-but-incomplete responses get a "be more
// specific" nudge instead of a rejection.
//
// Features:
// - WebSockets per channel ID: /path/:channelid and /path/:channelid/ws
// - Players identified by cookie (playerID), duplicate usernames prevented
// - One clue in flight per channel, enforced by a keyed admission guard
// - Timed answer window with reveal on expiry, and a "skip clue" escape
// - Next-clue button offered after every clue resolves
// - Channels auto-reaped after configurable idle timeout
// - Random 8-char channel IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current channel, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Player holds the data we store server-side
type Player struct {
	PlayerID string
	Username string
}

// Messages coming from clients
type ClientMessage struct {
	Type     string `json:"type"`                // "join", "clue", "answer"
	Username string `json:"username,omitempty"`  // join
	Text     string `json:"text,omitempty"`      // answer
	ClueID   int    `json:"clue_id,omitempty"`   // clue: direct lookup instead of random
	Repeat   bool   `json:"repeat,omitempty"`    // clue: requested via the next-clue button
}

// SessionInfoMessage is sent immediately on connect so the client knows
// whether a clue is live and what role this cookie has.
type SessionInfoMessage struct {
	Type       string `json:"type"` // "session_info"
	ClueActive bool   `json:"clue_active"`
	IsExisting bool   `json:"is_existing"`        // true if this cookie already has a player
	Username   string `json:"username,omitempty"` // known username for this cookie, if any
}

// PlayerListMessage broadcasts the current roster.
type PlayerListMessage struct {
	Type    string   `json:"type"` // "player_list"
	Players []string `json:"players"`
}

// CollisionMessage is sent to a single client when a username is taken.
type CollisionMessage struct {
	Type    string `json:"type"`    // "collision"
	Message string `json:"message"` // user-facing text
}

// SimpleMessage is for generic notifications ("error", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatMessage echoes a player's answer attempt to the whole channel.
type ChatMessage struct {
	Type     string `json:"type"` // "chat"
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ClueMessage is the prompt broadcast when a new clue goes live.
type ClueMessage struct {
	Type      string `json:"type"` // "clue"
	ClueID    int    `json:"clue_id"`
	Category  string `json:"category"`
	Value     int    `json:"value"`
	Aired     string `json:"aired,omitempty"` // MM/YY
	Question  string `json:"question"`
	TimeLimit int    `json:"time_limit_ms"`
}

// ResultMessage reports a judgement or terminal outcome for the live clue.
type ResultMessage struct {
	Type     string `json:"type"`    // "result"
	Outcome  string `json:"outcome"` // "correct", "incorrect", "close", "timeout", "skipped"
	Username string `json:"username,omitempty"`
	Answer   string `json:"answer,omitempty"` // revealed raw answer text
	Message  string `json:"message"`
}

// NextClueMessage offers the channel another clue after a terminal state.
type NextClueMessage struct {
	Type string `json:"type"` // "next_clue"
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type joinRequest struct {
	client *Client
	msg    ClientMessage
}

type clueRequest struct {
	client *Client
	msg    ClientMessage
}

type answerEvent struct {
	client   *Client
	username string
	text     string
}

// sessionGuard tracks which channels currently have a clue in flight.
// Admission is a single check-and-set; release is unconditional so a channel
// can never stay locked after its session ends, however it ends.
type sessionGuard struct {
	mu     sync.Mutex
	active map[string]bool
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{
		active: make(map[string]bool),
	}
}

func (g *sessionGuard) tryAdmit(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active[channelID] {
		return false
	}
	g.active[channelID] = true
	return true
}

func (g *sessionGuard) release(channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.active, channelID)
}

type sessionState int

const (
	stateAwaitingAnswer sessionState = iota
	stateResolved
	stateTimedOut
	stateSkipped
)

// clueSession owns one clue's lifecycle: collect answer attempts, judge them,
// and resolve to a terminal state within the deadline. Attempts arrive on
// input and are processed one at a time, so judgements never overlap.
type clueSession struct {
	clue      *Clue
	possible  []canonicalAnswer
	input     chan answerEvent
	deadline  time.Time
	threshold float64
	state     sessionState
	emit      func(msg any)
}

func newClueSession(clue *Clue, threshold float64, timeLimit time.Duration, emit func(msg any)) *clueSession {
	return &clueSession{
		clue:      clue,
		possible:  possibleAnswers(clue.Answer),
		input:     make(chan answerEvent, 16),
		deadline:  time.Now().Add(timeLimit),
		threshold: threshold,
		state:     stateAwaitingAnswer,
		emit:      emit,
	}
}

// run blocks until the session reaches a terminal state. Each iteration
// waits for the next answer attempt or the deadline, whichever comes first;
// the wait is floored at half a second so a clue never expires mid-attempt.
func (s *clueSession) run() {
	for s.state == stateAwaitingAnswer {
		remaining := time.Until(s.deadline)
		if remaining < 500*time.Millisecond {
			remaining = 500 * time.Millisecond
		}

		timer := time.NewTimer(remaining)

		select {
		case ev := <-s.input:
			timer.Stop()
			s.handleAttempt(ev)

		case <-timer.C:
			s.state = stateTimedOut
			s.emit(ResultMessage{
				Type:    "result",
				Outcome: "timeout",
				Answer:  s.clue.Answer,
				Message: fmt.Sprintf("Time's up! The correct response was %q.", s.clue.Answer),
			})
		}
	}
}

func (s *clueSession) handleAttempt(ev answerEvent) {
	text := strings.ToLower(ev.text)

	if strings.HasPrefix(text, skipPhrase) {
		s.state = stateSkipped
		s.emit(ResultMessage{
			Type:     "result",
			Outcome:  "skipped",
			Username: ev.username,
			Message:  "Ok.",
		})
		return
	}

	response := extractResponse(text)

	switch judgeAnswer(response, s.possible, s.threshold) {
	case verdictCorrect:
		s.state = stateResolved
		s.emit(ResultMessage{
			Type:     "result",
			Outcome:  "correct",
			Username: ev.username,
			Answer:   s.clue.Answer,
			Message:  fmt.Sprintf("That's correct, %s. The correct response was %q.", ev.username, s.clue.Answer),
		})

	case verdictNeedsSpecificity:
		s.emit(ResultMessage{
			Type:     "result",
			Outcome:  "close",
			Username: ev.username,
			Message:  fmt.Sprintf("Be more specific, %s.", ev.username),
		})

	default:
		s.emit(ResultMessage{
			Type:     "result",
			Outcome:  "incorrect",
			Username: ev.username,
			Message:  fmt.Sprintf("That's incorrect, %s.", ev.username),
		})
	}
}

type Hub struct {
	id      string
	clients map[*Client]bool
	players []Player

	register chan *Client
	unreg    chan *Client
	joins    chan joinRequest
	clues    chan clueRequest
	answers  chan answerEvent

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	session *clueSession // live clue, nil otherwise

	guard    *sessionGuard
	provider clueProvider
}

func newHub(channelID string, guard *sessionGuard, provider clueProvider) *Hub {
	now := time.Now()
	return &Hub{
		id:         channelID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		joins:      make(chan joinRequest),
		clues:      make(chan clueRequest),
		answers:    make(chan answerEvent),
		createdAt:  now,
		lastActive: now,
		guard:      guard,
		provider:   provider,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()

			isExisting := false
			existingName := ""
			for _, p := range h.players {
				if p.PlayerID == c.playerID {
					isExisting = true
					existingName = p.Username
					break
				}
			}

			h.clients[c] = true

			c.send <- SessionInfoMessage{
				Type:       "session_info",
				ClueActive: h.session != nil,
				IsExisting: isExisting,
				Username:   existingName,
			}

			players := h.currentPlayersLocked()
			h.mu.Unlock()

			c.send <- PlayerListMessage{
				Type:    "player_list",
				Players: players,
			}

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			playerID := c.playerID
			h.mu.Unlock()

			if playerID != "" {
				go h.scheduleRemoval(playerID, cfg.playerTimeout)
			}

		case jr := <-h.joins:
			h.handleJoin(cfg, jr)

		case cr := <-h.clues:
			h.handleClueRequest(cfg, cr)

		case ev := <-h.answers:
			h.handleAnswer(ev)
		}
	}
}

func (h *Hub) currentPlayersLocked() []string {
	players := make([]string, 0, len(h.players))
	for _, p := range h.players {
		players = append(players, p.Username)
	}
	return players
}

func (h *Hub) broadcastPlayersLocked() {
	msg := PlayerListMessage{
		Type:    "player_list",
		Players: h.currentPlayersLocked(),
	}

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(msg)
}

func (h *Hub) sendTo(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) setSession(s *clueSession) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session = s
}

func (h *Hub) clearSession() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session = nil
}

// scheduleRemoval waits for d, and if no client with this playerID
// is currently connected, removes that player's entry and broadcasts
// the updated roster.
func (h *Hub) scheduleRemoval(playerID string, d time.Duration) {
	time.Sleep(d)

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.playerID == playerID {
			return
		}
	}

	dst := h.players[:0]
	changed := false

	for _, p := range h.players {
		if p.PlayerID == playerID {
			changed = true
			continue
		}
		dst = append(dst, p)
	}
	h.players = dst

	if !changed {
		return
	}

	h.lastActive = time.Now()

	h.broadcastPlayersLocked()
}

// handleJoin processes "join" messages.
func (h *Hub) handleJoin(cfg *Config, jr joinRequest) {
	msg := jr.msg
	c := jr.client

	if msg.Username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	existingIndex := -1
	for i, p := range h.players {
		if p.PlayerID == c.playerID {
			existingIndex = i
			break
		}
	}

	for _, p := range h.players {
		if p.PlayerID == c.playerID {
			continue
		}
		if p.Username == msg.Username {
			select {
			case c.send <- CollisionMessage{
				Type:    "collision",
				Message: "That username is already taken. Please choose a different username.",
			}:
			default:
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}

	if existingIndex >= 0 {
		h.players[existingIndex].Username = msg.Username
	} else {
		h.players = append(h.players, Player{
			PlayerID: c.playerID,
			Username: msg.Username,
		})
		logf(cfg, "GAMES: Player %q joined %s", msg.Username, h.id)
	}

	h.broadcastPlayersLocked()
}

// handleClueRequest admits at most one clue session per channel; a denied
// request gets its own message so the client can tell it apart from a fault.
func (h *Hub) handleClueRequest(cfg *Config, cr clueRequest) {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()

	if !h.guard.tryAdmit(h.id) {
		logf(cfg, "GAMES: %v: %s", errClueActive, h.id)
		h.sendTo(cr.client, SimpleMessage{
			Type:    "error",
			Message: "There's already an active clue in this channel!",
		})
		return
	}

	if cr.msg.Repeat {
		logf(cfg, "GAMES: Next clue requested in %s", h.id)
	}

	go h.runClueSession(cfg, cr.msg.ClueID)
}

// runClueSession is the whole lifecycle of one admitted clue: fetch, prompt,
// judge until terminal, offer the next clue. The guard is released on every
// exit path, panics included.
func (h *Hub) runClueSession(cfg *Config, clueID int) {
	release := sync.OnceFunc(func() {
		h.clearSession()
		h.guard.release(h.id)
	})
	defer release()

	defer func() {
		if r := recover(); r != nil {
			release()
			logf(cfg, "ERROR: Clue session in %s: %v", h.id, r)
			h.broadcast(SimpleMessage{
				Type:    "error",
				Message: "Something went wrong! Try again?",
			})
		}
	}()

	ctx := context.Background()

	var clue *Clue
	if clueID > 0 {
		found, err := h.provider.fetchClue(ctx, clueID)
		if err != nil || found == nil {
			h.broadcast(SimpleMessage{
				Type:    "error",
				Message: "Failed to get a clue with that id.",
			})
			return
		}
		if !isValidClue(found, true) {
			h.broadcast(SimpleMessage{
				Type:    "error",
				Message: "That doesn't seem to be a valid clue.",
			})
			return
		}
		clue = found
	} else {
		found, err := randomClue(ctx, h.provider, cfg)
		if err != nil {
			h.broadcast(SimpleMessage{
				Type:    "error",
				Message: "Failed to get a random clue, maybe the service is down?",
			})
			return
		}
		clue = found
	}

	prepareClue(clue)

	session := newClueSession(clue, cfg.similarityThreshold, cfg.answerTimeLimit, h.broadcast)
	h.setSession(session)

	logf(cfg, "GAMES: Serving clue %d in %s", clue.ID, h.id)

	h.broadcast(ClueMessage{
		Type:      "clue",
		ClueID:    clue.ID,
		Category:  clue.Category.Title,
		Value:     clue.Value,
		Aired:     airedMonthYear(clue.Game.Aired),
		Question:  clue.Question,
		TimeLimit: int(cfg.answerTimeLimit.Milliseconds()),
	})

	session.run()

	release()

	h.broadcast(NextClueMessage{Type: "next_clue"})
}

// handleAnswer echoes the attempt to the channel, then forwards it to the
// live session if one exists and the text is phrased as an answer. Attempts
// that arrive after a session ends are dropped here: the hub stops forwarding
// the instant the session pointer is cleared, so a later session never sees
// its predecessor's input.
func (h *Hub) handleAnswer(ev answerEvent) {
	h.mu.Lock()
	h.lastActive = time.Now()

	username := ""
	for _, p := range h.players {
		if p.PlayerID == ev.client.playerID {
			username = p.Username
			break
		}
	}
	session := h.session
	h.mu.Unlock()

	if username == "" {
		return
	}
	ev.username = username

	h.broadcast(ChatMessage{
		Type:     "chat",
		Username: username,
		Text:     ev.text,
	})

	if session == nil || !isAnswerAttempt(ev.text) {
		return
	}

	select {
	case session.input <- ev:
	default:
		// Session inbox flooded; drop rather than block the hub loop.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "cluebox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// ChannelManager holds a set of hubs keyed by channel ID, so each
// $path/$channelid is its own isolated channel, plus the admission guard
// shared by all of them.
type ChannelManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	guard       *sessionGuard
	provider    clueProvider
	idleTimeout time.Duration
}

func newChannelManager(provider clueProvider, idleTimeout time.Duration) *ChannelManager {
	cm := &ChannelManager{
		hubs:        make(map[string]*Hub),
		guard:       newSessionGuard(),
		provider:    provider,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go cm.reaperLoop()
	}
	return cm
}

func (cm *ChannelManager) getHub(cfg *Config, channelID string) *Hub {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if hub, ok := cm.hubs[channelID]; ok {
		return hub
	}

	hub := newHub(channelID, cm.guard, cm.provider)
	cm.hubs[channelID] = hub
	go hub.run(cfg)
	return hub
}

// newChannelID generates a crypto-random channel ID and ensures it doesn't
// collide with existing channels.
func (cm *ChannelManager) newChannelID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		cm.mu.Lock()
		_, exists := cm.hubs[id]
		cm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// reaperLoop periodically removes hubs that have been idle longer than
// idleTimeout. Channel IDs are never reused, so a reaped channel's guard
// entry (if its last clue is still winding down) clears itself when that
// session times out.
func (cm *ChannelManager) reaperLoop() {
	ticker := time.NewTicker(cm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-cm.idleTimeout)

		cm.mu.Lock()
		for id, hub := range cm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(cm.hubs, id)
				go hub.closeAll()
			}
		}
		cm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :channelid
func serveWSForManager(cfg *Config, cm *ChannelManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		channelID := ps.ByName("channelid")
		if channelID == "" {
			http.Error(w, "missing channel id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := cm.getHub(cfg, channelID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			h.joins <- joinRequest{
				client: c,
				msg:    msg,
			}
		case "clue":
			h.clues <- clueRequest{
				client: c,
				msg:    msg,
			}
		case "answer":
			h.answers <- answerEvent{
				client: c,
				text:   msg.Text,
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current channel URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	channelID := ps.ByName("channelid")
	if channelID == "" {
		http.Error(w, "missing channel id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:channelid/qr; strip trailing "/qr" to get the channel URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed trivia/index.html
var indexHTML []byte

//go:embed trivia/app.css
var clueboxCSS []byte

//go:embed trivia/app.js
var clueboxJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(clueboxCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(clueboxJS)
	}
}

// redirectNewChannel handles GET /path by generating a new random channel ID
// (with server-side collision detection) and redirecting to /path/:channelid.
func redirectNewChannel(cfg *Config, path string, cm *ChannelManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		channelID := cm.newChannelID()
		logf(cfg, "GAMES: Created channel %s/%s", path, channelID)
		http.Redirect(w, r, path+"/"+channelID, http.StatusTemporaryRedirect)
	}
}

// registerTriviaGame sets up routes so that:
//   - $path                     → redirects to new random channel (8-char ID)
//   - $path/:channelid          → HTML client
//   - $path/:channelid/ws       → WebSocket for that channel
//   - $path/:channelid/qr       → PNG QR code for that channel URL
func registerTriviaGame(cfg *Config, path string, mux *httprouter.Router) {
	cm := newChannelManager(newJServiceClient(cfg.clueAPI), cfg.sessionTimeout)

	// Root path → redirect to new random channel
	mux.GET(path, redirectNewChannel(cfg, path, cm))

	// Per-channel client view (HTML)
	mux.GET(cfg.prefix+path+"/:channelid", getIndexHandler(cfg))

	// Shared assets (no channelid in route)
	mux.GET(cfg.prefix+"/assets/trivia/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/trivia/app.js", getJsHandler(cfg))

	// Per-channel websocket
	mux.GET(cfg.prefix+path+"/:channelid/ws", serveWSForManager(cfg, cm))

	// Per-channel QR code
	mux.GET(cfg.prefix+path+"/:channelid/qr", qrHandler)
}
