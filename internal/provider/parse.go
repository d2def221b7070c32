package provider

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/robalobadob/pidro/internal/game"
)

// ParseMove reads a move from a backend answer and checks it is legal.
// Accepted forms, in order: a JSON object {"move":{"type":..,"value":..}}
// (or {"move":"sA"}, or {"type":..,"value":..}), a bare token, or prose
// that mentions exactly one legal token.
func ParseMove(provider, raw string, legal []game.Move) (game.Move, error) {
	text := stripFences(raw)
	if text == "" {
		return game.Move{}, &ParseError{Provider: provider, Raw: raw, Reason: "empty answer"}
	}

	if tok, ok := jsonToken(text); ok {
		m, err := game.ParseMove(tok)
		if err != nil {
			return game.Move{}, &ParseError{Provider: provider, Raw: raw, Reason: "unreadable move " + tok}
		}
		if !game.Contains(legal, m) {
			return game.Move{}, &ParseError{Provider: provider, Raw: raw, Reason: "illegal move " + tok}
		}
		return m, nil
	}

	bare := strings.Trim(text, " \t\r\n\"'`.!")
	if m, err := game.ParseMove(bare); err == nil && game.Contains(legal, m) {
		return m, nil
	}

	var found []game.Move
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		m, err := game.ParseMove(w)
		if err != nil || !game.Contains(legal, m) || game.Contains(found, m) {
			continue
		}
		found = append(found, m)
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return game.Move{}, &ParseError{Provider: provider, Raw: raw, Reason: "no legal move in answer"}
	}
	return game.Move{}, &ParseError{Provider: provider, Raw: raw, Reason: "ambiguous answer"}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

type answerJSON struct {
	Move  json.RawMessage `json:"move"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// jsonToken extracts the move token from the first JSON object in s.
func jsonToken(s string) (string, bool) {
	start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	var a answerJSON
	if err := json.Unmarshal([]byte(s[start:end+1]), &a); err != nil {
		return "", false
	}
	if len(a.Move) > 0 {
		var tok string
		if err := json.Unmarshal(a.Move, &tok); err == nil {
			return tok, true
		}
		var inner answerJSON
		if err := json.Unmarshal(a.Move, &inner); err == nil {
			return rawToken(inner.Value)
		}
		return "", false
	}
	return rawToken(a.Value)
}

// rawToken accepts "8" as well as 8.
func rawToken(v json.RawMessage) (string, bool) {
	if len(v) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
