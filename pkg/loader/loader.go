// Package loader populates a command registry from a build-time catalog and
// drives load, unload, reload, and install operations at runtime.
package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/logger"
	"github.com/ajirodesu/chaldea/pkg/pending"
)

var (
	// ErrUnknownModule reports a catalog miss.
	ErrUnknownModule = errors.New("loader: unknown module")
	// ErrNotLoaded reports an unload or reload of a command that is not
	// currently registered.
	ErrNotLoaded = errors.New("loader: module not loaded")
	// ErrConflict reports an install over an already-registered name.
	ErrConflict = errors.New("loader: module already registered")
	// ErrInvalid reports a module that declares a different name than the
	// one it was cataloged or installed under.
	ErrInvalid = errors.New("loader: module name mismatch")
)

// Catalog maps module names to constructors. Commands and events each get
// their own catalog; both are assembled at build time.
type Catalog[T any] map[string]func() T

// Names returns the catalog keys sorted for stable iteration.
func (c Catalog[T]) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failure records one module that could not be loaded.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a full load pass.
type Report struct {
	Commands []string
	Events   []string
	Failures []Failure
}

// Loader installs catalog modules into a registry. Pending-reply state is
// dropped when the owning command is unloaded so a stale continuation can
// never fire against a command that no longer exists. The catalogs grow when
// modules are installed at runtime, so every catalog access is serialized.
type Loader struct {
	mu       sync.Mutex
	reg      *command.Registry
	commands Catalog[command.Command]
	events   Catalog[command.Event]
	pend     *pending.Store
}

func New(reg *command.Registry, commands Catalog[command.Command], events Catalog[command.Event], pend *pending.Store) *Loader {
	return &Loader{reg: reg, commands: commands, events: events, pend: pend}
}

// LoadAll registers every catalog module, continuing past individual
// failures. A nil command catalog is fatal, mirroring a bot shipped with no
// command set at all.
func (l *Loader) LoadAll() (Report, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadAllLocked()
}

func (l *Loader) loadAllLocked() (Report, error) {
	if l.commands == nil {
		return Report{}, errors.New("loader: no command catalog")
	}

	var rep Report
	for _, name := range l.commands.Names() {
		if err := l.loadCommand(name); err != nil {
			rep.Failures = append(rep.Failures, Failure{Name: name, Err: err})
			logger.WarnCF("loader", "skipping command", map[string]any{
				"module": name,
				"error":  err.Error(),
			})
			continue
		}
		rep.Commands = append(rep.Commands, name)
	}
	for _, name := range l.events.Names() {
		if err := l.loadEvent(name); err != nil {
			rep.Failures = append(rep.Failures, Failure{Name: name, Err: err})
			logger.WarnCF("loader", "skipping event", map[string]any{
				"module": name,
				"error":  err.Error(),
			})
			continue
		}
		rep.Events = append(rep.Events, name)
	}

	logger.InfoCF("loader", "load pass complete", map[string]any{
		"commands": len(rep.Commands),
		"events":   len(rep.Events),
		"failures": len(rep.Failures),
	})
	return rep, nil
}

// ReloadAll rebuilds the registry wholesale: clear, then a full load pass.
// Dispatches racing the rebuild may briefly see a partial registry; command
// words simply miss during that window.
func (l *Loader) ReloadAll() (Report, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.commands == nil {
		return Report{}, errors.New("loader: no command catalog")
	}
	l.reg.Clear()
	if l.pend != nil {
		for name := range l.commands {
			l.pend.DropCommand(name)
		}
	}
	return l.loadAllLocked()
}

// LoadOne registers a single catalog command by name.
func (l *Loader) LoadOne(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadCommand(strings.ToLower(name))
}

// Unload removes a command and drops any continuations it left behind.
func (l *Loader) Unload(name string) error {
	name = strings.ToLower(name)
	if !l.reg.Unregister(name) {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	if l.pend != nil {
		l.pend.DropCommand(name)
	}
	logger.InfoC("loader", "unloaded command "+name)
	return nil
}

// Reload swaps a registered command for a fresh instance from the catalog.
// The registry keeps the old instance if the replacement cannot be applied.
func (l *Loader) Reload(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	name = strings.ToLower(name)
	ctor, ok := l.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	if _, loaded := l.reg.Get(name); !loaded {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	if err := l.reg.Replace(ctor()); err != nil {
		return err
	}
	if l.pend != nil {
		l.pend.DropCommand(name)
	}
	logger.InfoC("loader", "reloaded command "+name)
	return nil
}

// Install registers a module not previously part of the running set. The
// module must declare the name it is installed under, and the name must be
// free; violations return ErrInvalid and ErrConflict respectively.
func (l *Loader) Install(name string, ctor func() command.Command) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	name = strings.ToLower(name)
	cmd := ctor()
	if !strings.EqualFold(cmd.Meta().Name, name) {
		return fmt.Errorf("%w: declared %q, installed as %q", ErrInvalid, cmd.Meta().Name, name)
	}
	if _, ok := l.reg.Resolve(name); ok {
		return fmt.Errorf("%w: %s", ErrConflict, name)
	}
	if err := l.reg.Register(cmd); err != nil {
		return err
	}
	if l.commands == nil {
		l.commands = Catalog[command.Command]{}
	}
	l.commands[name] = ctor
	logger.InfoC("loader", "installed command "+name)
	return nil
}

func (l *Loader) loadCommand(name string) error {
	ctor, ok := l.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	cmd := ctor()
	if !strings.EqualFold(cmd.Meta().Name, name) {
		return fmt.Errorf("%w: declared %q, cataloged as %q", ErrInvalid, cmd.Meta().Name, name)
	}
	return l.reg.Register(cmd)
}

func (l *Loader) loadEvent(name string) error {
	ctor, ok := l.events[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return l.reg.RegisterEvent(ctor())
}
