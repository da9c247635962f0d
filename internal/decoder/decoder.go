// Package decoder turns raw provider text into typed documents.
//
// Providers are asked for JSON but frequently wrap it in a markdown fence or
// a sentence of prose. Decode strips that wrapping, parses the remainder
// strictly and optionally checks it against one of the embedded JSON schemas.
package decoder

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("^```(?:[A-Za-z0-9_-]+)?\\s*([\\s\\S]*?)\\s*```$")
	innerFence   = regexp.MustCompile("```(?:[A-Za-z0-9_-]+)?\\s*([\\s\\S]*?)\\s*```")
)

type options struct {
	schema string
}

// Option configures a Decode call
type Option func(*options)

// WithSchema validates the parsed document against the named embedded schema
// (topic_analysis, posts, voice_profile, viral_posts).
func WithSchema(name string) Option {
	return func(o *options) {
		o.schema = name
	}
}

// Decode extracts and parses the JSON document contained in raw.
func Decode[T any](raw string, opts ...Option) (T, error) {
	var zero T
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	body := Extract(raw)
	if body == "" {
		return zero, &MalformedResponseError{Raw: raw, Err: errEmpty}
	}

	if o.schema != "" {
		var doc any
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return zero, &MalformedResponseError{Raw: raw, Err: err}
		}
		if err := validate(o.schema, doc); err != nil {
			return zero, err
		}
	}

	var out T
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&out); err != nil {
		return zero, &MalformedResponseError{Raw: raw, Err: err}
	}
	if dec.More() {
		return zero, &MalformedResponseError{Raw: raw, Err: errTrailing}
	}
	return out, nil
}

// Extract returns the JSON text inside raw: the interior of a fence that
// wraps the whole input, the input itself when it already starts with a JSON
// value, the interior of a fence embedded in prose, or the first balanced
// object or array embedded in prose.
func Extract(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return ""
	}
	if text[0] == '{' || text[0] == '[' {
		return text
	}
	// Prose around a fenced block
	if m := innerFence.FindStringSubmatch(text); m != nil {
		if inner := strings.TrimSpace(m[1]); json.Valid([]byte(inner)) {
			return inner
		}
	}
	if v, ok := firstValue(text); ok {
		return v
	}
	return text
}

// firstValue returns the first balanced '{...}' or '[...]' span of text
// that is valid JSON, honouring string literals and escapes.
func firstValue(text string) (string, bool) {
	for offset := 0; offset < len(text); {
		i := strings.IndexAny(text[offset:], "{[")
		if i < 0 {
			return "", false
		}
		start := offset + i
		if end, ok := matchBracket(text, start); ok {
			if candidate := text[start : end+1]; json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		offset = start + 1
	}
	return "", false
}

// matchBracket returns the index of the bracket closing the one at start.
func matchBracket(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
