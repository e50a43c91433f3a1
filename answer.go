// Answer acceptance for trivia clues.
//
// A clue's raw answer text often encodes more than one acceptable response:
// "(John) Smith" accepts "smith" and "john smith", "John (or Johnny)" accepts
// "john" and "johnny". possibleAnswers expands the raw text into that set
// once, and judgeAnswer scores a player's attempt against it with a
// three-way outcome so the channel can tell "wrong" apart from "right words,
// not enough of them".

package main

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	betweenParentheses = regexp.MustCompile(`\([^)]*\)`)
	parentheses        = regexp.MustCompile(`[()]`)
	answerStartRE      = regexp.MustCompile(`^(?:wh(?:at|ere|o)(?: is|'s|s| are)|qu[eé] es) +`)
	nonWordRE          = regexp.MustCompile(`\W+`)
)

// answerStarts lists the question-style openings that make a channel message
// count as an answer attempt. The fused "wheres where are " entry is one
// literal prefix, not two, so neither "wheres everest" nor "where are they"
// qualifies on its own. answerStartRE still strips both forms if they ever
// qualify.
var answerStarts = []string{
	"what is ", "what's ", "whats ", "what are ",
	"where is ", "where's ", "wheres where are ",
	"who is ", "who's ", "whos ", "who are ",
	"que es ", "qué es ",
	skipPhrase,
}

const skipPhrase = "skip clue"

type verdict int

const (
	verdictIncorrect verdict = iota
	verdictCorrect
	verdictNeedsSpecificity
)

// canonicalAnswer is one acceptable form of a clue's answer. Purely numeric
// answers are matched by exact value instead of string similarity, so a year
// clue can't be fuzzed into.
type canonicalAnswer struct {
	text    string
	number  int
	numeric bool
}

func newCanonicalAnswer(text string) canonicalAnswer {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return canonicalAnswer{number: n, numeric: true}
	}
	return canonicalAnswer{text: text}
}

// possibleAnswers derives the set of acceptable answers from a clue's raw
// answer text. Markup is stripped and the text lowercased before the
// parenthetical rules apply:
//   - "(John) Smith"     -> "smith", "john smith"
//   - "John (or Johnny)" -> "john", "johnny"
//   - "John (Smith)"     -> "john", "john smith"
//   - anything else (including internal parentheses) stays literal
//
// The result is never empty for non-empty input.
func possibleAnswers(rawAnswer string) []canonicalAnswer {
	answer := strings.ToLower(strings.TrimSpace(stripTags(rawAnswer)))

	var variants []string

	switch {
	case answer == "":
		variants = []string{answer}

	case answer[0] == '(':
		variants = []string{
			betweenParentheses.ReplaceAllString(answer, ""),
			parentheses.ReplaceAllString(answer, ""),
		}

	case answer[len(answer)-1] == ')':
		start := strings.Index(answer, "(")
		if start < 0 {
			// Unmatched closing parenthesis; take the text as-is.
			variants = []string{answer}
		} else if strings.HasPrefix(answer[start+1:], "or ") {
			variants = []string{
				answer[:start],
				answer[start+4 : len(answer)-1],
			}
		} else {
			variants = []string{
				betweenParentheses.ReplaceAllString(answer, ""),
				parentheses.ReplaceAllString(answer, ""),
			}
		}

	default:
		variants = []string{answer}
	}

	possible := make([]canonicalAnswer, 0, len(variants))
	for _, variant := range variants {
		possible = append(possible, newCanonicalAnswer(variant))
	}

	return possible
}

// judgeAnswer scores a player's response against the acceptable answers.
//
// Numeric answers require an exact integer match. String answers count as
// correct when the similarity ratio clears the threshold. Failing both, if
// every word of the response appears in some acceptable answer, that answer
// is rebuilt from only the words the player used and re-scored: clearing the
// threshold is still correct, otherwise the player was close but needs to be
// more specific.
func judgeAnswer(response string, possible []canonicalAnswer, threshold float64) verdict {
	closeAnswer := false
	responseWords := splitWords(response)

	for _, correct := range possible {
		if correct.numeric {
			if n, err := strconv.Atoi(strings.TrimSpace(response)); err == nil && n == correct.number {
				return verdictCorrect
			}
			continue
		}

		if matchRatio(correct.text, response) >= threshold {
			return verdictCorrect
		}

		if !closeAnswer && containsAllWords(splitWords(correct.text), responseWords) {
			closeAnswer = true
		}
	}

	if !closeAnswer {
		return verdictIncorrect
	}

	for _, correct := range possible {
		if correct.numeric {
			continue
		}

		correctWords := splitWords(correct.text)
		if !containsAllWords(correctWords, responseWords) {
			continue
		}

		// Rebuild the answer from only the words the player used, keeping
		// the answer's own word order.
		used := make([]string, 0, len(correctWords))
		for _, word := range correctWords {
			for _, responseWord := range responseWords {
				if word == responseWord {
					used = append(used, word)
					break
				}
			}
		}

		if matchRatio(correct.text, strings.Join(used, " ")) >= threshold {
			return verdictCorrect
		}
	}

	return verdictNeedsSpecificity
}

// isAnswerAttempt reports whether a channel message should be treated as an
// answer to the active clue, i.e. it is phrased as a question (or is the
// skip phrase).
func isAnswerAttempt(text string) bool {
	lower := strings.ToLower(text)
	for _, prefix := range answerStarts {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// extractResponse strips the leading question phrase and a trailing question
// mark from a (lowercased) answer attempt, leaving just the response to
// judge. The trailing "?" is only removed if something is left afterwards.
func extractResponse(text string) string {
	text = answerStartRE.ReplaceAllString(text, "")

	if strings.HasSuffix(text, "?") {
		if trimmed := strings.TrimSpace(strings.TrimSuffix(text, "?")); trimmed != "" {
			text = trimmed
		}
	}

	return text
}

func splitWords(s string) []string {
	words := nonWordRE.Split(s, -1)
	dst := words[:0]
	for _, word := range words {
		if word != "" {
			dst = append(dst, word)
		}
	}
	return dst
}

func containsAllWords(haystack, needles []string) bool {
	for _, needle := range needles {
		found := false
		for _, word := range haystack {
			if word == needle {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchRatio is the classic sequence-alignment similarity measure: twice the
// number of matched characters divided by the combined length of both
// strings, where matches come from recursively splitting around the longest
// common contiguous run. 1.0 means identical, 0.0 means nothing in common.
func matchRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}

	return size +
		matchingRunes(a[:ai], b[:bi]) +
		matchingRunes(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common contiguous run of a and b, preferring
// the earliest occurrence in a, then in b.
func longestMatch(a, b []rune) (bestA, bestB, bestSize int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := range a {
		for j := range b {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}

			cur[j+1] = prev[j] + 1
			if cur[j+1] > bestSize {
				bestSize = cur[j+1]
				bestA = i - bestSize + 1
				bestB = j - bestSize + 1
			}
		}

		prev, cur = cur, prev
		clear(cur)
	}

	return bestA, bestB, bestSize
}
