package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the live command and event modules. Command names and
// aliases share one global identifier space: no two live modules may claim
// the same identifier, case-insensitively.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command // canonical lowercase name -> module
	idents   map[string]string  // lowercase name or alias -> canonical name
	events   map[string]Event
	eventOrd []string // event names in registration order
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		idents:   make(map[string]string),
		events:   make(map[string]Event),
	}
}

// ValidateMeta checks the declared metadata alone, independent of what is
// already registered.
func ValidateMeta(m Meta) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("missing module name")
	}
	if m.Cooldown < 0 {
		return fmt.Errorf("negative cooldown for %q", m.Name)
	}
	seen := map[string]struct{}{strings.ToLower(m.Name): {}}
	for _, a := range m.Aliases {
		la := strings.ToLower(a)
		if la == strings.ToLower(m.Name) {
			return fmt.Errorf("alias %q duplicates the command name", a)
		}
		if _, dup := seen[la]; dup {
			return fmt.Errorf("duplicate alias %q", a)
		}
		seen[la] = struct{}{}
	}
	return nil
}

// Register inserts a command, enforcing the global identifier uniqueness
// invariant. A failed registration leaves the registry untouched.
func (r *Registry) Register(cmd Command) error {
	m := cmd.Meta()
	if err := ValidateMeta(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range m.Identifiers() {
		if owner, taken := r.idents[id]; taken {
			return fmt.Errorf("identifier %q already claimed by command %q", id, owner)
		}
	}

	canonical := strings.ToLower(m.Name)
	r.commands[canonical] = cmd
	for _, id := range m.Identifiers() {
		r.idents[id] = canonical
	}
	return nil
}

// Unregister evicts a command and every identifier it claimed. It reports
// whether anything was removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterLocked(strings.ToLower(name))
}

func (r *Registry) unregisterLocked(canonical string) bool {
	cmd, ok := r.commands[canonical]
	if !ok {
		return false
	}
	for _, id := range cmd.Meta().Identifiers() {
		delete(r.idents, id)
	}
	delete(r.commands, canonical)
	return true
}

// Replace evicts any module registered under the new module's name before
// inserting it, so a reload never leaves a stale duplicate behind.
func (r *Registry) Replace(cmd Command) error {
	m := cmd.Meta()
	if err := ValidateMeta(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := strings.ToLower(m.Name)
	old, existed := r.commands[canonical]
	if existed {
		r.unregisterLocked(canonical)
	}

	for _, id := range m.Identifiers() {
		if owner, taken := r.idents[id]; taken {
			// Roll back the eviction; the new module clashes elsewhere.
			if existed {
				r.commands[canonical] = old
				for _, oid := range old.Meta().Identifiers() {
					r.idents[oid] = canonical
				}
			}
			return fmt.Errorf("identifier %q already claimed by command %q", id, owner)
		}
	}

	r.commands[canonical] = cmd
	for _, id := range m.Identifiers() {
		r.idents[id] = canonical
	}
	return nil
}

// Resolve looks a command up by name or alias, case-insensitively.
func (r *Registry) Resolve(word string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.idents[strings.ToLower(word)]
	if !ok {
		return nil, false
	}
	cmd, ok := r.commands[canonical]
	return cmd, ok
}

// Get looks a command up by its canonical name only.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns the live modules sorted by name.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Command, 0, len(names))
	for _, name := range names {
		out = append(out, r.commands[name])
	}
	return out
}

// Len reports the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// RegisterEvent inserts an event module. Event names are unique among
// events but do not contend with command identifiers.
func (r *Registry) RegisterEvent(ev Event) error {
	m := ev.Meta()
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("missing module name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := strings.ToLower(m.Name)
	if _, taken := r.events[canonical]; taken {
		return fmt.Errorf("event %q already registered", m.Name)
	}
	r.events[canonical] = ev
	r.eventOrd = append(r.eventOrd, canonical)
	return nil
}

// UnregisterEvent removes an event module by name.
func (r *Registry) UnregisterEvent(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := strings.ToLower(name)
	if _, ok := r.events[canonical]; !ok {
		return false
	}
	delete(r.events, canonical)
	for i, n := range r.eventOrd {
		if n == canonical {
			r.eventOrd = append(r.eventOrd[:i], r.eventOrd[i+1:]...)
			break
		}
	}
	return true
}

// Events returns the live event modules in registration order.
func (r *Registry) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, 0, len(r.eventOrd))
	for _, name := range r.eventOrd {
		if ev, ok := r.events[name]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Clear wipes both registries ahead of a wholesale reload. Dispatch running
// concurrently may observe the empty window; that is accepted.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = make(map[string]Command)
	r.idents = make(map[string]string)
	r.events = make(map[string]Event)
	r.eventOrd = nil
}
