package command

import (
	"strings"
	"time"
)

// AccessLevel is the minimum role required to invoke a command.
type AccessLevel string

const (
	AccessAnyone        AccessLevel = "anyone"
	AccessAdministrator AccessLevel = "administrator"
	AccessVIP           AccessLevel = "vip"
	AccessOwner         AccessLevel = "owner"
)

// ParseAccessLevel normalizes a declared access level. Unknown or empty
// values fall back to AccessAnyone; "dev" is accepted as a synonym for the
// owner/developer level.
func ParseAccessLevel(s string) AccessLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "administrator", "admin":
		return AccessAdministrator
	case "vip":
		return AccessVIP
	case "owner", "dev", "developer":
		return AccessOwner
	default:
		return AccessAnyone
	}
}

// Meta describes one loadable command or event module.
type Meta struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	Access      AccessLevel
	Cooldown    time.Duration
	Guide       []string
}

// Identifiers returns the lowercase name followed by the lowercase aliases.
func (m Meta) Identifiers() []string {
	ids := make([]string, 0, len(m.Aliases)+1)
	ids = append(ids, strings.ToLower(m.Name))
	for _, a := range m.Aliases {
		ids = append(ids, strings.ToLower(a))
	}
	return ids
}
