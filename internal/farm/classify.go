package farm

import (
	"strings"
	"time"
)

// GameState is the verdict of a single poll
type GameState int

const (
	StateIdle GameState = iota
	StateActionAvailable
	StateOnCooldown
	StateUnknown
)

func (s GameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActionAvailable:
		return "action_available"
	case StateOnCooldown:
		return "on_cooldown"
	case StateUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// RecognitionResult holds the text lines read from one capture. Results
// are ephemeral and never reused across polls.
type RecognitionResult struct {
	Lines []string
}

// Classification is the outcome of classifying one recognition result
type Classification struct {
	State     GameState
	Remaining time.Duration
	Line      string // the line that decided the state, for logging
}

// Classifier turns recognition results into game states using per-task
// token sets. Token matching is case-insensitive on the raw line; the
// OCR substitution set is applied only to countdown candidates.
type Classifier struct {
	ReadyTokens []string
	IdleTokens  []string
}

// countdownSubstitutions maps common OCR misreads onto digits
var countdownSubstitutions = strings.NewReplacer(
	"O", "0", "o", "0",
	"l", "1", "I", "1", "|", "1",
	"S", "5",
	"B", "8",
)

// Classify applies the policy per line in reading order; the first line
// that matches decides. Empty or unreadable input is StateUnknown so the
// loop never acts on a guess.
func (c *Classifier) Classify(result RecognitionResult) Classification {
	for _, line := range result.Lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if containsAny(lower, c.ReadyTokens) {
			return Classification{State: StateActionAvailable, Line: trimmed}
		}
		if containsAny(lower, c.IdleTokens) {
			return Classification{State: StateIdle, Line: trimmed}
		}
		if remaining, ok := parseCountdown(trimmed); ok {
			return Classification{State: StateOnCooldown, Remaining: remaining, Line: trimmed}
		}
	}
	return Classification{State: StateUnknown}
}

func containsAny(line string, tokens []string) bool {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if strings.Contains(line, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// parseCountdown accepts mm:ss and hh:mm:ss with minutes and seconds in
// 0..59. The substitution set runs first so "0l:3O" still parses.
func parseCountdown(line string) (time.Duration, bool) {
	normalized := countdownSubstitutions.Replace(strings.TrimSpace(line))

	parts := strings.Split(normalized, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		n, ok := parseDigits(part)
		if !ok {
			return 0, false
		}
		values[i] = n
	}

	var hours, minutes, seconds int
	if len(values) == 2 {
		minutes, seconds = values[0], values[1]
	} else {
		hours, minutes, seconds = values[0], values[1], values[2]
	}
	if minutes > 59 || seconds > 59 {
		return 0, false
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return total, true
}

// parseDigits converts a 1-2 digit component; anything else fails the parse
func parseDigits(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
