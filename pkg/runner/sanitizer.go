package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EnvMaxInputSize caps the lines read by the interactive handlers, in bytes.
// Unset means no cap.
const EnvMaxInputSize = "COURIER_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput applies SanitizeLimit with MaxInputSize.
func SanitizeInput(input string) (string, error) {
	return SanitizeLimit(input, MaxInputSize())
}

// SanitizeLimit rejects input longer than limit bytes or not valid UTF-8,
// and drops control characters except newline, tab and carriage return.
// Oversized input is rejected, never truncated. A limit <= 0 disables the size check.
func SanitizeLimit(input string, limit int) (string, error) {
	if limit > 0 && len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// MaxInputSize returns the limit set through EnvMaxInputSize, or 0 (no limit).
func MaxInputSize() int {
	if v := os.Getenv(EnvMaxInputSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
