package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits a player or handoff command line into argv. It
// handles double and single quotes plus backslash escapes, enough for
// binaries and audio paths with spaces in them. A line starting with
// "#" counts as disabled and yields no argv.
func parseArgv(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil, nil
	}

	var args []string
	var word strings.Builder

	emit := func() {
		if word.Len() > 0 {
			args = append(args, word.String())
			word.Reset()
		}
	}

	var open rune
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' {
			if i+1 == len(runes) {
				return nil, fmt.Errorf("unterminated escape sequence in command: %q", line)
			}
			i++
			word.WriteRune(runes[i])
			continue
		}
		switch {
		case open != 0:
			if r == open {
				open = 0
			} else {
				word.WriteRune(r)
			}
		case r == '"' || r == '\'':
			open = r
		case unicode.IsSpace(r):
			emit()
		default:
			word.WriteRune(r)
		}
	}
	if open != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", line)
	}
	emit()
	return args, nil
}

// mustParseArgv is for built-in defaults, which are known to parse.
func mustParseArgv(line string) []string {
	args, err := parseArgv(line)
	if err != nil {
		panic(err)
	}
	return args
}
