// Package bank defines the closed set of banks the reconciler understands.
//
// Every deposit and every queue row is tagged with exactly one Bank, and all
// matching is scoped to a single bank. Unknown bank names are rejected here,
// at the adapter boundary, so the matcher never sees them.
package bank

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Bank identifies a receiving bank
type Bank string

const (
	BCA     Bank = "BCA"
	DANA    Bank = "DANA"
	BRI     Bank = "BRI"
	MANDIRI Bank = "MANDIRI"
	BNI     Bank = "BNI"
)

// ErrUnknownBank is returned by Parse for values outside the enumeration
var ErrUnknownBank = errors.New("unknown bank")

// all is the declared processing order
var all = []Bank{BCA, DANA, BRI, MANDIRI, BNI}

// All returns every bank in declared order. The slice is a copy.
func All() []Bank {
	out := make([]Bank, len(all))
	copy(out, all)
	return out
}

// Parse converts a raw bank name (any case, surrounding spaces allowed)
func Parse(raw string) (Bank, error) {
	candidate := Bank(strings.ToUpper(strings.TrimSpace(raw)))
	for _, b := range all {
		if b == candidate {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBank, raw)
}

// ParseList parses a list of bank names, dropping duplicates while keeping
// first-seen order.
func ParseList(raw []string) ([]Bank, error) {
	seen := make(map[Bank]bool, len(raw))
	out := make([]Bank, 0, len(raw))
	for _, r := range raw {
		b, err := Parse(r)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// String implements fmt.Stringer
func (b Bank) String() string {
	return string(b)
}

// Valid reports whether b is exactly one of the enumerated values. Use
// Parse to accept other spellings.
func (b Bank) Valid() bool {
	return slices.Contains(all, b)
}
