package policy

import (
	"fmt"
	"sort"
	"strings"
)

// IsSensitive reports whether a variable must be redacted in snapshots.
// Keys under PublicPrefix are exposed to clients at build time and are
// never treated as sensitive by suffix; an explicit deny-list entry
// still wins.
func (p *Policy) IsSensitive(key string) bool {
	for _, k := range p.SensitiveKeys {
		if key == k {
			return true
		}
	}
	if p.PublicPrefix != "" && strings.HasPrefix(key, p.PublicPrefix) {
		return false
	}
	for _, suffix := range p.SensitiveSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// Redact replaces a sensitive value with a marker carrying only the
// original length.
func Redact(value string) string {
	return fmt.Sprintf("[REDACTED:%d]", len(value))
}

// IsRedacted reports whether a value is a redaction marker.
func IsRedacted(value string) bool {
	return strings.HasPrefix(value, "[REDACTED:") && strings.HasSuffix(value, "]")
}

// Classify returns the importance level for a variable name.
func (p *Policy) Classify(name string) Level {
	if level, ok := p.Importance[name]; ok {
		return level
	}
	return LevelLow
}

// IsPlaceholder reports whether a value still carries the template
// placeholder marker.
func (p *Policy) IsPlaceholder(value string) bool {
	return p.PlaceholderMarker != "" && strings.Contains(value, p.PlaceholderMarker)
}

// Required returns the required-variable list for the given phase
// ("full" gets the superset).
func (p *Policy) Required(full bool) []string {
	if full {
		return p.RequiredFull
	}
	return p.RequiredSimple
}

// Known returns every variable name the policy mentions, sorted:
// the required lists, the feature flags, the sensitive deny-list, and
// everything with an importance classification.
func (p *Policy) Known() []string {
	seen := make(map[string]bool)
	for _, name := range p.RequiredSimple {
		seen[name] = true
	}
	for _, name := range p.RequiredFull {
		seen[name] = true
	}
	for _, name := range p.SensitiveKeys {
		seen[name] = true
	}
	for _, name := range FlagNames() {
		seen[name] = true
	}
	for name := range p.Importance {
		seen[name] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
