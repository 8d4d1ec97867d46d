package ptyctl

import "strings"

// specialKeys maps bracketed special-key notation to the control bytes a
// terminal would send. Covers the common set an interactive debugger or
// line editor expects; unrecognised bracketed tokens pass through as
// literal text so a typo doesn't silently swallow input.
var specialKeys = map[string]string{
	"[UP]":    "\x1b[A",
	"[DOWN]":  "\x1b[B",
	"[RIGHT]": "\x1b[C",
	"[LEFT]":  "\x1b[D",
	"[HOME]":  "\x1b[H",
	"[END]":   "\x1b[F",
	"[ENTER]": "\r",
	"[TAB]":   "\t",
	"[BACKSPACE]": "\x7f",
	"[ESC]":   "\x1b",
	"[F1]":    "\x1bOP",
	"[F2]":    "\x1bOQ",
	"[F3]":    "\x1bOR",
	"[F4]":    "\x1bOS",
}

// InterpretKeys translates `^X` control-character and `[TOKEN]`
// special-key notation into the raw bytes a PTY expects, when interpret is
// true. When interpret is false, keys is sent to the child byte-for-byte.
func InterpretKeys(keys string, interpret bool) string {
	if !interpret {
		return keys
	}
	var out strings.Builder
	for i := 0; i < len(keys); {
		if keys[i] == '^' && i+1 < len(keys) {
			c := keys[i+1]
			if c >= 'A' && c <= 'Z' {
				out.WriteByte(c - 'A' + 1)
				i += 2
				continue
			}
			if c == '?' {
				out.WriteByte(0x7f)
				i += 2
				continue
			}
		}
		if keys[i] == '[' {
			if end := strings.IndexByte(keys[i:], ']'); end >= 0 {
				token := keys[i : i+end+1]
				if translated, ok := specialKeys[token]; ok {
					out.WriteString(translated)
					i += end + 1
					continue
				}
			}
		}
		out.WriteByte(keys[i])
		i++
	}
	return out.String()
}
