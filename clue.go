// Clue retrieval from a jservice-compatible API.
//
// The upstream random-clue endpoint is slow, so randomClue instead probes
// directly-addressed clue IDs at random until one passes the validity check
// or the retry budget runs out.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var (
	tagRE      = regexp.MustCompile(`<[^>]*>`)
	brTagRE    = regexp.MustCompile(`<br ?/>`)
	jArchiveRE = regexp.MustCompile(`j-archive`)
)

type Clue struct {
	ID           int          `json:"id"`
	Answer       string       `json:"answer"`
	Question     string       `json:"question"`
	Value        int          `json:"value"`
	InvalidCount int          `json:"invalidCount"`
	Category     ClueCategory `json:"category"`
	Game         ClueGame     `json:"game"`
}

type ClueCategory struct {
	Title string `json:"title"`
}

type ClueGame struct {
	Aired string `json:"aired"` // ISO date, e.g. "1997-03-12..."
}

// clueProvider fetches a single clue by ID, returning (nil, nil) when the
// service has no such clue.
type clueProvider interface {
	fetchClue(ctx context.Context, id int) (*Clue, error)
}

type jserviceClient struct {
	baseURL string
	client  *http.Client
}

func newJServiceClient(baseURL string) *jserviceClient {
	return &jserviceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (j *jserviceClient) fetchClue(ctx context.Context, id int) (*Clue, error) {
	url := fmt.Sprintf("%s/api/clues/%d", j.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var clue Clue
	if err := json.NewDecoder(resp.Body).Decode(&clue); err != nil {
		return nil, err
	}

	return &clue, nil
}

// isLinkClue reports whether the clue's question references the j-archive
// site, which the web client can't display. Direct-by-id lookups may still
// serve these.
func isLinkClue(clue *Clue) bool {
	return jArchiveRE.MatchString(clue.Question)
}

func isValidClue(clue *Clue, allowLink bool) bool {
	return clue.InvalidCount == 0 &&
		clue.Question != "" &&
		clue.Answer != "" &&
		(allowLink || !isLinkClue(clue))
}

// randomClue probes random clue IDs in [1, cfg.clueIDMax] until one passes
// the validity check, giving up after cfg.clueRetries attempts. Fetch errors
// count against the budget like invalid clues do.
func randomClue(ctx context.Context, provider clueProvider, cfg *Config) (*Clue, error) {
	for range cfg.clueRetries {
		id := rand.IntN(cfg.clueIDMax) + 1

		clue, err := provider.fetchClue(ctx, id)
		if err != nil || clue == nil || !isValidClue(clue, false) {
			continue
		}

		return clue, nil
	}

	return nil, errNoClue
}

func stripTags(s string) string {
	return tagRE.ReplaceAllString(s, "")
}

// prepareClue normalizes the question body for display: line break tags
// become newlines, all other markup is dropped.
func prepareClue(clue *Clue) {
	clue.Question = brTagRE.ReplaceAllString(clue.Question, "\n")
	clue.Question = stripTags(clue.Question)
}

// airedMonthYear renders the clue's air date as MM/YY, or "" if unknown.
func airedMonthYear(aired string) string {
	if len(aired) < 7 {
		return ""
	}
	return aired[5:7] + "/" + aired[2:4]
}
