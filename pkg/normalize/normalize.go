// Package normalize turns raw user queries into brain keys.
package normalize

import (
	"regexp"
	"strings"
)

// prefixes are tried in order; only the first match is removed.
var prefixes = compile(
	"who is", "what is", "what are", "where is", "when is", "why is", "how is",
	"who are", "where are", "when are", "why are", "how are",
	"tell me about", "can you tell me", "do you know", "i want to know about",
	"search for", "find", "look up", "define", "what does", "how does", "what do",
)

func compile(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		out[i] = regexp.MustCompile(`^` + regexp.QuoteMeta(p) + `\s+`)
	}
	return out
}

// Query lowercases and trims raw, collapses whitespace runs to a single space,
// strips at most one leading interrogative or imperative prefix and drops
// trailing sentence punctuation. It returns "" when nothing is left.
func Query(raw string) string {
	q := collapse(strings.ToLower(raw))
	for _, p := range prefixes {
		if loc := p.FindStringIndex(q); loc != nil {
			q = q[loc[1]:]
			break
		}
	}
	return strings.TrimRight(q, "?!. ")
}

// Fallback is the key used when Query yields "": the lowercased, trimmed input.
func Fallback(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}

// Key returns Query(raw), or Fallback(raw) when normalization consumes everything.
func Key(raw string) string {
	if k := Query(raw); k != "" {
		return k
	}
	return Fallback(raw)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
