// Package sanitize cleans identifiers received from untrusted input
// (HTTP bodies, MCP tool arguments, REPL lines) before they reach a machine.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is the byte limit for a single identifier or command line.
	DefaultMaxInputSize = 1024
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "REWIND_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Input enforces the size limit, validates UTF-8, strips control characters
// and trims surrounding whitespace.
func Input(input string) (string, error) {
	limit := maxInputSize()
	if len(input) > limit {
		// Reject rather than truncate: a truncated event name could match another one.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return strings.TrimSpace(input), nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// IsInvalid reports whether err was returned by Input.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8)
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
