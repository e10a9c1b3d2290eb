package services

import (
	"fmt"
	"strings"
	"time"
)

// NamingStrategy selects how output files are named.
type NamingStrategy string

const (
	// NamingTimestamp prefixes the input name with the epoch milliseconds.
	NamingTimestamp NamingStrategy = "timestamp"
	// NamingSuffix replaces a trailing ".pdf" with "_dop.pdf".
	NamingSuffix NamingStrategy = "suffix"
)

const suffixedExt = "_dop.pdf"

// ParseNamingStrategy validates a strategy name. Empty selects timestamp naming.
func ParseNamingStrategy(s string) (NamingStrategy, error) {
	switch NamingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NamingTimestamp:
		return NamingTimestamp, nil
	case NamingSuffix:
		return NamingSuffix, nil
	}
	return "", fmt.Errorf("unknown naming strategy %q (want %q or %q)", s, NamingTimestamp, NamingSuffix)
}

// OutputName computes the artifact filename for an input name.
func (s NamingStrategy) OutputName(name string, now time.Time) string {
	if s == NamingSuffix {
		if len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".pdf") {
			return name[:len(name)-4] + suffixedExt
		}
		return name + suffixedExt
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}
