// Package normalize turns raw names and amounts from either store into the
// canonical form used for matching.
//
// Names are compared as upper-case strings with every whitespace character
// removed. Amounts are compared as integers after stripping every non-digit
// character, so "Rp 50.000" and "50000" are the same amount.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrEmptyInput is returned when a name is blank after trimming
	ErrEmptyInput = errors.New("empty input")

	// ErrNotANumber is returned when an amount has no usable digits
	ErrNotANumber = errors.New("not a number")
)

// Name canonicalizes a holder name
func Name(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyInput
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String(), nil
}

// Amount extracts the integer amount from a raw coin string
func Amount(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}

	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		// Only overflow is possible here: the input is all digits
		return 0, fmt.Errorf("%w: %q: %v", ErrNotANumber, raw, err)
	}
	return n, nil
}
