package itinerary

import (
	"regexp"
	"strings"
)

var fence = regexp.MustCompile("```[A-Za-z]*")

// sliceObject strips markdown fences and returns the text from the first
// '{' to the last '}'. Without a closing brace the tail is kept so balance
// can close it.
func sliceObject(raw string) (string, bool) {
	s := fence.ReplaceAllString(raw, "")
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	if end := strings.LastIndex(s, "}"); end > start {
		return s[start : end+1], true
	}
	return s[start:], true
}

// balance appends the closers missing from a truncated JSON text. Brackets
// inside strings are ignored; an unterminated string is closed first, and a
// dangling comma is dropped.
func balance(s string) string {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
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
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n")
	out = strings.TrimSuffix(out, ",")

	b.Reset()
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

var controlChars = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// flatten replaces raw newlines and tabs, which break decoding when they
// appear unescaped inside string values.
func flatten(s string) string {
	return controlChars.Replace(s)
}
