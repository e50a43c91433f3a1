package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClueProvider serves canned clues for hub and random-search tests.
type fakeClueProvider struct {
	mu    sync.Mutex
	clue  *Clue
	err   error
	calls int
}

func (f *fakeClueProvider) fetchClue(_ context.Context, id int) (*Clue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.clue == nil {
		return nil, nil
	}

	clue := *f.clue
	if clue.ID == 0 {
		clue.ID = id
	}
	return &clue, nil
}

func (f *fakeClueProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func testClue() *Clue {
	return &Clue{
		ID:       42,
		Answer:   "Mount Everest",
		Question: "The tallest mountain above sea level",
		Value:    400,
		Category: ClueCategory{Title: "GEOGRAPHY"},
		Game:     ClueGame{Aired: "1997-03-12T00:00:00.000Z"},
	}
}

func TestIsValidClue(t *testing.T) {
	tests := []struct {
		name      string
		clue      Clue
		allowLink bool
		want      bool
	}{
		{
			name: "valid clue",
			clue: Clue{Question: "q", Answer: "a"},
			want: true,
		},
		{
			name: "flagged invalid",
			clue: Clue{Question: "q", Answer: "a", InvalidCount: 3},
			want: false,
		},
		{
			name: "empty question",
			clue: Clue{Answer: "a"},
			want: false,
		},
		{
			name: "empty answer",
			clue: Clue{Question: "q"},
			want: false,
		},
		{
			name: "link clue rejected by default",
			clue: Clue{Question: `seen <a href="http://j-archive.com/x.jpg">here</a>`, Answer: "a"},
			want: false,
		},
		{
			name:      "link clue allowed for direct lookups",
			clue:      Clue{Question: `seen <a href="http://j-archive.com/x.jpg">here</a>`, Answer: "a"},
			allowLink: true,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidClue(&tt.clue, tt.allowLink))
		})
	}
}

func TestPrepareClue(t *testing.T) {
	clue := &Clue{
		Question: "First line<br />Second <i>line</i>",
		Answer:   "a",
	}

	prepareClue(clue)

	assert.Equal(t, "First line\nSecond line", clue.Question)
}

func TestAiredMonthYear(t *testing.T) {
	assert.Equal(t, "03/97", airedMonthYear("1997-03-12T00:00:00.000Z"))
	assert.Equal(t, "11/04", airedMonthYear("2004-11-30"))
	assert.Equal(t, "", airedMonthYear(""))
	assert.Equal(t, "", airedMonthYear("1997"))
}

func TestJServiceClientFetchClue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/clues/42":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":42,"answer":"Mount Everest","question":"The tallest mountain","value":400,"invalidCount":0,"category":{"title":"GEOGRAPHY"},"game":{"aired":"1997-03-12"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newJServiceClient(srv.URL)

	clue, err := client.fetchClue(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, clue)
	assert.Equal(t, 42, clue.ID)
	assert.Equal(t, "Mount Everest", clue.Answer)
	assert.Equal(t, "GEOGRAPHY", clue.Category.Title)
	assert.Equal(t, "1997-03-12", clue.Game.Aired)

	// Missing clues come back as nil without an error, like the upstream 404.
	clue, err = client.fetchClue(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, clue)
}

func TestRandomClueSuccess(t *testing.T) {
	cfg := &Config{clueRetries: 20, clueIDMax: 1000}
	provider := &fakeClueProvider{clue: &Clue{Answer: "a", Question: "q"}}

	clue, err := randomClue(context.Background(), provider, cfg)
	require.NoError(t, err)
	require.NotNil(t, clue)
	assert.Equal(t, 1, provider.callCount())
}

func TestRandomClueExhaustsRetries(t *testing.T) {
	cfg := &Config{clueRetries: 20, clueIDMax: 1000}

	// Every fetch "succeeds" but the clue never passes the validity check.
	provider := &fakeClueProvider{clue: &Clue{Answer: "a", Question: "q", InvalidCount: 1}}

	clue, err := randomClue(context.Background(), provider, cfg)
	assert.ErrorIs(t, err, errNoClue)
	assert.Nil(t, clue)
	assert.Equal(t, 20, provider.callCount())
}

func TestRandomClueSkipsLinkClues(t *testing.T) {
	cfg := &Config{clueRetries: 3, clueIDMax: 1000}
	provider := &fakeClueProvider{clue: &Clue{Answer: "a", Question: "see j-archive for the picture"}}

	_, err := randomClue(context.Background(), provider, cfg)
	assert.ErrorIs(t, err, errNoClue)
	assert.Equal(t, 3, provider.callCount())
}

func TestJServiceClientTimeoutConfigured(t *testing.T) {
	client := newJServiceClient("https://example.com/")
	assert.Equal(t, "https://example.com", client.baseURL)
	assert.Equal(t, 10*time.Second, client.client.Timeout)
}
