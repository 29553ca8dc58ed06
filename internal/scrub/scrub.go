// Package scrub redacts credential-shaped substrings from arbitrary text
// before it crosses a trust boundary (a log line, a persisted error, a
// tool result handed back to a provider). It operates on bytes, not
// codepoints, so invalid UTF-8 can't be used to slip a secret past the
// redaction rules.
package scrub

import (
	"bytes"
)

const redacted = "[REDACTED]"

// toolOutputLimit is the byte threshold past which scrub_tool_output
// truncates before scrubbing.
const toolOutputLimit = 10000

const truncationSuffix = "\n[output truncated]"

// apiErrorLimit is the byte threshold past which sanitize_api_error
// truncates after scrubbing.
const apiErrorLimit = 200

var keyValueKeywords = []string{
	"api_key", "api-key", "apikey", "token", "password", "passwd",
	"secret", "api_secret", "access_key",
}

var secretPrefixes = []string{
	"sk-", "xoxb-", "xoxp-", "ghp_", "gho_", "ghs_", "ghu_", "glpat-",
	"AKIA", "pypi-", "npm_", "shpat_",
}

func isSecretChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == ':':
		return true
	}
	return false
}

func isValueChar(b byte) bool {
	// Same alphabet as a secret char; value-scan stops at the first byte
	// outside it (or at a matching quote).
	return isSecretChar(b)
}

// Scrub returns a redacted copy of text. It scans left to right applying,
// in priority order: key/value secrets, Bearer tokens, then bare secret
// prefixes.
func Scrub(text string) string {
	src := []byte(text)
	var out bytes.Buffer
	out.Grow(len(src))

	i := 0
	for i < len(src) {
		if adv, ok := tryKeyValue(src, i, &out); ok {
			i = adv
			continue
		}
		if adv, ok := tryBearer(src, i, &out); ok {
			i = adv
			continue
		}
		if adv, ok := tryPrefix(src, i, &out); ok {
			i = adv
			continue
		}
		out.WriteByte(src[i])
		i++
	}
	return out.String()
}

// tryKeyValue matches keyword(=|:) [space] [quote] value at position i.
func tryKeyValue(src []byte, i int, out *bytes.Buffer) (int, bool) {
	for _, kw := range keyValueKeywords {
		if !matchFoldAt(src, i, kw) {
			continue
		}
		j := i + len(kw)
		if j >= len(src) || (src[j] != '=' && src[j] != ':') {
			continue
		}
		sep := src[j]
		j++

		// Keep the keyword and separator as they appeared in source.
		out.Write(src[i:j])

		if j < len(src) && src[j] == ' ' {
			out.WriteByte(' ')
			j++
		}

		var quote byte
		if j < len(src) && (src[j] == '"' || src[j] == '\'') {
			quote = src[j]
			out.WriteByte(quote)
			j++
		}

		valStart := j
		var valEnd int
		if quote != 0 {
			k := j
			for k < len(src) && src[k] != quote && src[k] != '\n' {
				k++
			}
			valEnd = k
		} else {
			k := j
			for k < len(src) && isValueChar(src[k]) {
				k++
			}
			valEnd = k
		}

		value := src[valStart:valEnd]
		if len(value) == 0 {
			// Empty value: no hint, no redaction marker, separator already
			// preserved above.
			j = valEnd
			if quote != 0 && j < len(src) && src[j] == quote {
				out.WriteByte(quote)
				j++
			}
			return j, true
		}

		if bytes.HasPrefix(src[valEnd:], []byte(redacted)) {
			// Already-scrubbed remnant (value here is really a previously
			// emitted hint): pass through unchanged instead of redacting
			// a second time.
			out.Write(value)
			out.WriteString(redacted)
			j = valEnd + len(redacted)
			if quote != 0 && j < len(src) && src[j] == quote {
				out.WriteByte(quote)
				j++
			}
			return j, true
		}

		hintLen := len(value)
		if hintLen > 4 {
			hintLen = 4
		}
		out.Write(value[:hintLen])
		out.WriteString(redacted)

		j = valEnd
		if quote != 0 && j < len(src) && src[j] == quote {
			out.WriteByte(quote)
			j++
		}
		_ = sep
		return j, true
	}
	return 0, false
}

var bearerVariants = []string{"Bearer ", "bearer ", "BEARER "}

func tryBearer(src []byte, i int, out *bytes.Buffer) (int, bool) {
	for _, prefix := range bearerVariants {
		if !bytes.HasPrefix(src[i:], []byte(prefix)) {
			continue
		}
		j := i + len(prefix)
		out.Write(src[i:j])

		k := j
		for k < len(src) && isValueChar(src[k]) {
			k++
		}
		value := src[j:k]
		if len(value) == 0 {
			return j, true
		}

		if bytes.HasPrefix(src[k:], []byte(redacted)) {
			// Already-scrubbed remnant: pass through unchanged.
			out.Write(value)
			out.WriteString(redacted)
			return k + len(redacted), true
		}

		hintLen := len(value)
		if hintLen > 4 {
			hintLen = 4
		}
		out.Write(value[:hintLen])
		out.WriteString(redacted)
		return k, true
	}
	return 0, false
}

func tryPrefix(src []byte, i int, out *bytes.Buffer) (int, bool) {
	for _, prefix := range secretPrefixes {
		if !bytes.HasPrefix(src[i:], []byte(prefix)) {
			continue
		}
		j := i + len(prefix)
		k := j
		for k < len(src) && isSecretChar(src[k]) {
			k++
		}
		if k == j {
			// Bare prefix with nothing following: leave untouched.
			continue
		}
		out.WriteString(redacted)
		return k, true
	}
	return 0, false
}

// matchFoldAt reports whether the ASCII-case-insensitive keyword matches
// src starting at position i.
func matchFoldAt(src []byte, i int, keyword string) bool {
	if i+len(keyword) > len(src) {
		return false
	}
	for k := 0; k < len(keyword); k++ {
		a, b := src[i+k], keyword[k]
		if a == b {
			continue
		}
		if toLowerASCII(a) != toLowerASCII(b) {
			return false
		}
	}
	return true
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// ScrubToolOutput truncates text exceeding 10,000 bytes (appending a
// marker) before scrubbing it. Tool output routinely contains secrets
// leaked by misconfigured commands; this is the boundary where that
// output re-enters the conversation as a ToolResult.
func ScrubToolOutput(text string) string {
	if len(text) > toolOutputLimit {
		text = text[:toolOutputLimit] + truncationSuffix
	}
	return Scrub(text)
}

// SanitizeAPIError scrubs an upstream error body and caps it to 200
// bytes, so that long raw provider error payloads never propagate
// verbatim into logs or DaemonState.
func SanitizeAPIError(text string) string {
	text = Scrub(text)
	if len(text) > apiErrorLimit {
		text = text[:apiErrorLimit] + "..."
	}
	return text
}
