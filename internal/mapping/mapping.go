package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/local/stopoverdispatch/internal/detect"
)

// Entries stored with these prefixes are carbon-copy and blind-copy
// recipients; anything else is a primary recipient.
const (
	CCTag  = "__CC__:"
	BCCTag = "__BCC__:"
)

// ErrInvalidCode is returned by edit paths for codes that are not three
// ASCII letters.
var ErrInvalidCode = errors.New("stopover code must be three letters")

// Table maps a stopover code to its ordered recipient entries.
type Table map[string][]string

// Recipients is a resolved recipient list split by header.
type Recipients struct {
	To  []string `json:"to"`
	CC  []string `json:"cc,omitempty"`
	BCC []string `json:"bcc,omitempty"`
}

// Empty reports whether no header has an address.
func (r Recipients) Empty() bool {
	return len(r.To) == 0 && len(r.CC) == 0 && len(r.BCC) == 0
}

// Resolve returns the entries configured for code. The lookup is exact and
// an unmapped code yields an empty slice.
func Resolve(code string, table Table) []string {
	entries := table[code]
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}

// ResolveRecipients resolves code and splits the entries by header.
func ResolveRecipients(code string, table Table) Recipients {
	return Split(Resolve(code, table))
}

// Split decodes tagged entries.
func Split(entries []string) Recipients {
	var r Recipients
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		switch {
		case s == "":
		case strings.HasPrefix(s, CCTag):
			if v := strings.TrimSpace(strings.TrimPrefix(s, CCTag)); v != "" {
				r.CC = append(r.CC, v)
			}
		case strings.HasPrefix(s, BCCTag):
			if v := strings.TrimSpace(strings.TrimPrefix(s, BCCTag)); v != "" {
				r.BCC = append(r.BCC, v)
			}
		default:
			r.To = append(r.To, s)
		}
	}
	return r
}

// Join encodes r back into a flat entry list.
func Join(r Recipients) []string {
	out := make([]string, 0, len(r.To)+len(r.CC)+len(r.BCC))
	out = append(out, NormalizeAddresses(r.To)...)
	for _, e := range NormalizeAddresses(r.CC) {
		out = append(out, CCTag+e)
	}
	for _, e := range NormalizeAddresses(r.BCC) {
		out = append(out, BCCTag+e)
	}
	return out
}

// Unmapped lists the distinct detected codes without any recipient, in
// first-seen order.
func Unmapped(stopovers []detect.Stopover, table Table) []string {
	var out []string
	for _, code := range detect.Codes(stopovers) {
		if ResolveRecipients(code, table).Empty() {
			out = append(out, code)
		}
	}
	return out
}

// NormalizeCode trims and upper-cases code and checks its shape.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
	}
	return c, nil
}

// NormalizeAddresses trims entries, drops blanks and duplicates, keeping
// the first occurrence.
func NormalizeAddresses(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		s := strings.TrimSpace(e)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Clone deep-copies t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	return out
}
