package retrieval

import (
	"regexp"
	"strings"
)

// allowedTags is the transport's restricted inline-markup whitelist.
var allowedTags = map[string]bool{"b": true, "i": true, "u": true, "s": true, "code": true, "pre": true, "a": true}

var tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)
var entityPattern = regexp.MustCompile(`&(amp|lt|gt|quot|#39);`)

// SanitizeHTML reduces arbitrary LLM-produced markup to the transport's
// fixed whitelist: disallowed tags are stripped but their text content is
// kept, entity escaping is idempotent (already-escaped entities are never
// double-escaped), and any unclosed allowed tag is auto-closed at the end
// (spec.md §4.6 step 8).
func SanitizeHTML(input string) string {
	stripped := stripDisallowedTags(input)
	escaped := escapeIdempotent(stripped)
	return balanceTags(escaped)
}

func stripDisallowedTags(input string) string {
	return tagPattern.ReplaceAllStringFunc(input, func(tag string) string {
		m := tagPattern.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		name := strings.ToLower(m[1])
		if allowedTags[name] {
			return tag
		}
		return ""
	})
}

// escapeIdempotent escapes bare '&' that do not already start a known
// entity. Running this twice on its own output is a no-op because
// already-valid entities are left untouched.
func escapeIdempotent(input string) string {
	var b strings.Builder
	i := 0
	for i < len(input) {
		if input[i] == '&' {
			if loc := entityPattern.FindStringIndex(input[i:]); loc != nil && loc[0] == 0 {
				b.WriteString(input[i : i+loc[1]])
				i += loc[1]
				continue
			}
			b.WriteString("&amp;")
			i++
			continue
		}
		b.WriteByte(input[i])
		i++
	}
	return b.String()
}

// balanceTags appends closing tags for any allowed tag left open, in
// reverse order of opening, so output is always well-formed markup.
func balanceTags(input string) string {
	var stack []string
	matches := tagPattern.FindAllStringSubmatchIndex(input, -1)
	for _, m := range matches {
		full := input[m[0]:m[1]]
		name := strings.ToLower(input[m[2]:m[3]])
		if !allowedTags[name] {
			continue
		}
		if strings.HasPrefix(full, "</") {
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == name {
					stack = append(stack[:i], stack[i+1:]...)
					break
				}
			}
		} else if !strings.HasSuffix(full, "/>") {
			stack = append(stack, name)
		}
	}

	var b strings.Builder
	b.WriteString(input)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteString("</")
		b.WriteString(stack[i])
		b.WriteString(">")
	}
	return b.String()
}
