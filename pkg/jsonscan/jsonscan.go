// Package jsonscan finds JSON objects embedded in free text such as model replies.
package jsonscan

import (
	"regexp"
	"strings"
)

var fence = regexp.MustCompile("(?is)```[ \\t]*json[ \\t]*\\r?\\n?(.*?)```")

// Fenced returns the bodies of every ```json fenced block in s.
func Fenced(s string) []string {
	var out []string
	for _, m := range fence.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// StripFenced removes every ```json fenced block from s and trims the result.
func StripFenced(s string) string {
	return strings.TrimSpace(fence.ReplaceAllString(s, ""))
}

// Objects returns the top-level {...} spans of s. Braces inside JSON strings are skipped.
//
// Scanning bytes is safe for the ASCII delimiters because UTF-8 never uses them inside a
// multi-byte sequence.
func Objects(s string) []string {
	var out []string
	depth, start := 0, -1
	inString, escape := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					out = append(out, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}

// FirstObject returns the first JSON object found in a fenced block, falling back to
// the raw text when there is no fence.
func FirstObject(s string) (string, bool) {
	for _, body := range Fenced(s) {
		if objs := Objects(body); len(objs) > 0 {
			return objs[0], true
		}
	}
	if objs := Objects(s); len(objs) > 0 {
		return objs[0], true
	}
	return "", false
}
