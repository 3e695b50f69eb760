// Package normalize turns loosely formatted model output into the strict question-set and
// report structures. Every shape rule for provider payloads lives in this package.
package normalize

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
)

const (
	// maxScanBytes bounds the bracket scan over text the cheaper stages rejected
	maxScanBytes = 1 << 20
	// validateBudget is how many times the scanned length may be fed to json.Valid
	validateBudget = 4
)

var (
	ErrEmptyResponse = errors.New("empty response")
	ErrNoJSONFound   = errors.New("no JSON found in response")
)

// fencePattern matches ``` blocks with an optional json language tag
var fencePattern = regexp.MustCompile("(?is)```(?:json)?[ \\t]*\\r?\\n?(.*?)```")

// Extract returns the JSON object or array embedded in model output.
//
// Stages run from most to least confident: the whole text, a fenced code block, the slice
// from the first opening to the last closing bracket, and finally a scan for the first
// balanced bracket run that parses. Each candidate must be valid JSON to be returned.
func Extract(text string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", ErrEmptyResponse
	}
	if isJSONContainer(s) {
		return s, nil
	}

	for _, m := range fencePattern.FindAllStringSubmatch(s, -1) {
		if inner := strings.TrimSpace(m[1]); isJSONContainer(inner) {
			return inner, nil
		}
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start >= 0 && end > start {
			if candidate := s[start : end+1]; isJSONContainer(candidate) {
				return candidate, nil
			}
		}
	}

	if candidate, ok := scanBalanced(s); ok {
		return candidate, nil
	}
	return "", ErrNoJSONFound
}

// isJSONContainer is the bracket test: matching outer pair and a parseable body
func isJSONContainer(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	if !(first == '{' && last == '}') && !(first == '[' && last == ']') {
		return false
	}
	return json.Valid([]byte(s))
}

// scanBalanced records every balanced bracket run in one pass and returns the first, by
// start offset, that parses. String literals inside an open run are skipped so braces in
// them do not count. Only the first maxScanBytes are scanned and the total bytes handed
// to the JSON validator are capped, keeping the stage linear in the input.
func scanBalanced(s string) (string, bool) {
	if len(s) > maxScanBytes {
		s = s[:maxScanBytes]
	}

	type span struct{ start, end int }
	var (
		spans    []span
		opens    []int
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
			inString = len(opens) > 0
		case '{', '[':
			opens = append(opens, i)
		case '}', ']':
			if len(opens) == 0 {
				continue
			}
			top := opens[len(opens)-1]
			if closerFor(s[top]) != c {
				// nothing opened before a mismatch can balance across it
				opens = opens[:0]
				continue
			}
			opens = opens[:len(opens)-1]
			spans = append(spans, span{top, i})
		}
	}

	sort.Slice(spans, func(a, b int) bool { return spans[a].start < spans[b].start })

	budget := validateBudget * len(s)
	for _, sp := range spans {
		size := sp.end - sp.start + 1
		if budget -= size; budget < 0 {
			break
		}
		if candidate := s[sp.start : sp.end+1]; json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

func closerFor(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ']'
}
