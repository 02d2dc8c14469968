package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Fences whose closing ``` starts a line; backticks inside the payload
	// do not end the block.
	jsonLineFenceRe  = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n(.*?)\\n\\s*```")
	plainLineFenceRe = regexp.MustCompile("(?s)```[ \\t]*\\r?\\n(.*?)\\n\\s*```")

	jsonFenceRe  = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	plainFenceRe = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
)

// ParseAIJSON extracts and parses JSON from AI output that may contain:
// - Pure JSON
// - JSON wrapped in markdown code blocks (```json ... ```)
// - JSON with surrounding text
// - JSON5-style irregularities (trailing commas, unquoted keys, single quotes, comments)
func ParseAIJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	// A fenced block wins over the surrounding prose
	candidate := input
	if fenced := extractFromMarkdown(input); fenced != "" {
		candidate = fenced
	}

	if err := json.Unmarshal([]byte(candidate), target); err == nil {
		return nil
	}

	// Try to find JSON object/array in text
	if extracted := extractJSONFromText(candidate); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		candidate = extracted
	}

	// Try to fix common JSON issues
	var lastErr error
	if repaired := repairJSON(candidate); repaired != "" {
		if lastErr = json.Unmarshal([]byte(repaired), target); lastErr == nil {
			return nil
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to parse JSON from input %q: %w", truncateString(input, 100), lastErr)
	}
	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

// extractFromMarkdown extracts JSON from markdown code blocks.
// Supports ```json\n{...}\n``` and an untagged fence holding an object or array.
func extractFromMarkdown(input string) string {
	for _, re := range []*regexp.Regexp{jsonLineFenceRe, jsonFenceRe} {
		if matches := re.FindStringSubmatch(input); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	for _, re := range []*regexp.Regexp{plainLineFenceRe, plainFenceRe} {
		if matches := re.FindStringSubmatch(input); len(matches) > 1 {
			content := strings.TrimSpace(matches[1])
			if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
				return content
			}
		}
	}

	return ""
}

// extractJSONFromText finds JSON object or array in surrounding text
func extractJSONFromText(input string) string {
	if start := strings.Index(input, "{"); start >= 0 {
		if extracted := extractBalancedBraces(input[start:], '{', '}'); extracted != "" {
			return extracted
		}
	}

	if start := strings.Index(input, "["); start >= 0 {
		if extracted := extractBalancedBraces(input[start:], '[', ']'); extracted != "" {
			return extracted
		}
	}

	return ""
}

// extractBalancedBraces extracts content with balanced braces
func extractBalancedBraces(input string, open, close rune) string {
	if len(input) == 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}

		if ch == '\\' {
			escape = true
			continue
		}

		if ch == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}

// repairJSON rewrites JSON5-ish text into strict JSON. It only touches text
// outside of string literals: trailing commas are dropped, bare keys are
// quoted, single-quoted strings become double-quoted, comments and stray
// control characters are removed. Raw control characters inside strings are
// escaped.
func repairJSON(input string) string {
	s := strings.TrimPrefix(strings.TrimSpace(input), "\ufeff")

	var out strings.Builder
	out.Grow(len(s) + 16)
	var last byte // last significant byte written

	for i := 0; i < len(s); i++ {
		ch := s[i]

		switch {
		case ch == '"':
			end, closed := scanString(s, i, '"')
			writeStringBody(&out, stringBody(s, i, end, closed), '"')
			i = end - 1
			last = '"'

		case ch == '\'':
			end, closed := scanString(s, i, '\'')
			writeStringBody(&out, stringBody(s, i, end, closed), '\'')
			i = end - 1
			last = '"'

		case ch == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}

		case ch == '/' && i+1 < len(s) && s[i+1] == '*':
			if end := strings.Index(s[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(s)
			}

		case ch == ',':
			j := skipSpace(s, i+1)
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			out.WriteByte(ch)
			last = ch

		case isIdentStart(ch) && (last == '{' || last == ','):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if k := skipSpace(s, j); k < len(s) && s[k] == ':' {
				out.WriteByte('"')
				out.WriteString(s[i:j])
				out.WriteByte('"')
				last = '"'
			} else {
				out.WriteString(s[i:j])
				last = s[j-1]
			}
			i = j - 1

		case ch < 0x20 && ch != '\n' && ch != '\r' && ch != '\t':
			// drop

		default:
			out.WriteByte(ch)
			if ch != ' ' && ch != '\n' && ch != '\r' && ch != '\t' {
				last = ch
			}
		}
	}

	return out.String()
}

// scanString returns the index just past the closing quote of the string
// literal starting at s[start], or len(s) when it is unterminated.
func scanString(s string, start int, quote byte) (int, bool) {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return len(s), false
}

// stringBody returns the literal's content without its quotes
func stringBody(s string, start, end int, closed bool) string {
	if closed {
		return s[start+1 : end-1]
	}
	return s[start+1 : end]
}

// writeStringBody writes body as a double-quoted JSON string
func writeStringBody(out *strings.Builder, body string, quote byte) {
	out.WriteByte('"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			if quote == '\'' && body[i+1] == '\'' {
				out.WriteByte('\'')
			} else {
				out.WriteByte(c)
				out.WriteByte(body[i+1])
			}
			i++
		case c == '"' && quote == '\'':
			out.WriteString(`\"`)
		case c == '\n':
			out.WriteString(`\n`)
		case c == '\r':
			out.WriteString(`\r`)
		case c == '\t':
			out.WriteString(`\t`)
		case c < 0x20:
			// drop
		default:
			out.WriteByte(c)
		}
	}
	out.WriteByte('"')
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\r' || s[i] == '\t') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
