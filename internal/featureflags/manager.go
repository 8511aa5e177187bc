// Package featureflags holds the boolean toggles read from FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"strings"
)

// Flag names a toggle the service understands.
type Flag string

// MaskForeignGoals reports another user's dream or aim as missing instead
// of forbidden, so goal ids cannot be probed for existence.
const MaskForeignGoals Flag = "mask_foreign_goals"

var known = map[Flag]struct{}{
	MaskForeignGoals: {},
}

// Manager answers whether a flag is on. A nil Manager has every flag off.
type Manager struct {
	on map[Flag]bool
}

// Parse reads a comma separated list such as "mask_foreign_goals=on".
// Names and values are case-insensitive. Unknown names and values other
// than on/off/true/false/1/0 are reported as one error; the entries that
// did parse are still returned.
func Parse(raw string) (*Manager, error) {
	m := &Manager{on: make(map[Flag]bool)}
	var bad []string

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, "=")
		flag := Flag(strings.ToLower(strings.TrimSpace(name)))
		if _, isKnown := known[flag]; !ok || !isKnown {
			bad = append(bad, entry)
			continue
		}
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "on", "true", "1":
			m.on[flag] = true
		case "off", "false", "0":
			m.on[flag] = false
		default:
			bad = append(bad, entry)
		}
	}

	if len(bad) > 0 {
		return m, fmt.Errorf("invalid FEATURE_FLAGS entries: %s", strings.Join(bad, ", "))
	}
	return m, nil
}

// NewManager is Parse without the error. Config validation rejects bad
// entries before the server starts.
func NewManager(raw string) *Manager {
	m, _ := Parse(raw)
	return m
}

// Enabled reports whether flag is switched on.
func (m *Manager) Enabled(flag Flag) bool {
	if m == nil {
		return false
	}
	return m.on[flag]
}
