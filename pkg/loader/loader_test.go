package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/pending"
)

type fakeCommand struct {
	meta command.Meta
	gen  int
}

func (f *fakeCommand) Meta() command.Meta                              { return f.meta }
func (f *fakeCommand) OnStart(context.Context, *command.Request) error { return nil }

type fakeEvent struct {
	meta command.Meta
}

func (f *fakeEvent) Meta() command.Meta                                     { return f.meta }
func (f *fakeEvent) OnMessage(context.Context, *command.EventRequest) error { return nil }

func cmdCtor(name string, aliases ...string) func() command.Command {
	return func() command.Command {
		return &fakeCommand{meta: command.Meta{Name: name, Aliases: aliases, Category: "test"}}
	}
}

func TestLoadAll_ContinuesPastFailures(t *testing.T) {
	reg := command.NewRegistry()
	commands := Catalog[command.Command]{
		"ping": cmdCtor("ping"),
		// Declares a name other than its catalog key.
		"broken": cmdCtor("fixed"),
		"help":   cmdCtor("help", "h"),
	}
	events := Catalog[command.Event]{
		"greet": func() command.Event {
			return &fakeEvent{meta: command.Meta{Name: "greet"}}
		},
	}

	rep, err := New(reg, commands, events, pending.NewStore()).LoadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"help", "ping"}, rep.Commands)
	assert.Equal(t, []string{"greet"}, rep.Events)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "broken", rep.Failures[0].Name)
	assert.ErrorIs(t, rep.Failures[0].Err, ErrInvalid)

	_, ok := reg.Resolve("broken")
	assert.False(t, ok)
	_, ok = reg.Resolve("h")
	assert.True(t, ok)
}

func TestLoadAll_DuplicateNameKeepsFirst(t *testing.T) {
	reg := command.NewRegistry()
	commands := Catalog[command.Command]{
		"echo": cmdCtor("echo"),
		// Alias collides with the already-loaded echo.
		"say": cmdCtor("say", "echo"),
	}

	rep, err := New(reg, commands, nil, nil).LoadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"echo"}, rep.Commands)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "say", rep.Failures[0].Name)

	got, ok := reg.Resolve("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Meta().Name)
}

func TestLoadAll_NilCatalogIsFatal(t *testing.T) {
	_, err := New(command.NewRegistry(), nil, nil, nil).LoadAll()
	require.Error(t, err)
}

func TestUnload_DropsPendingState(t *testing.T) {
	reg := command.NewRegistry()
	pend := pending.NewStore()
	l := New(reg, Catalog[command.Command]{"guess": cmdCtor("guess")}, nil, pend)

	_, err := l.LoadAll()
	require.NoError(t, err)
	pend.Put(10, 7, "guess", 42)
	pend.Put(10, 8, "other", nil)

	require.NoError(t, l.Unload("guess"))
	_, ok := reg.Resolve("guess")
	assert.False(t, ok)
	_, ok = pend.Consume(10, 7)
	assert.False(t, ok, "unload must drop the command's continuations")
	_, ok = pend.Consume(10, 8)
	assert.True(t, ok, "other commands' continuations survive")

	assert.ErrorIs(t, l.Unload("guess"), ErrNotLoaded)
}

func TestReload_SwapsInstance(t *testing.T) {
	reg := command.NewRegistry()
	gen := 0
	commands := Catalog[command.Command]{
		"rps": func() command.Command {
			gen++
			return &fakeCommand{meta: command.Meta{Name: "rps"}, gen: gen}
		},
	}
	l := New(reg, commands, nil, pending.NewStore())

	_, err := l.LoadAll()
	require.NoError(t, err)
	require.NoError(t, l.Reload("rps"))

	got, ok := reg.Get("rps")
	require.True(t, ok)
	assert.Equal(t, 2, got.(*fakeCommand).gen)
	assert.Equal(t, 1, reg.Len())

	assert.ErrorIs(t, l.Reload("nope"), ErrUnknownModule)
}

func TestReloadAll_RebuildsWholesale(t *testing.T) {
	reg := command.NewRegistry()
	pend := pending.NewStore()
	l := New(reg, Catalog[command.Command]{
		"ping": cmdCtor("ping"),
		"echo": cmdCtor("echo"),
	}, nil, pend)

	_, err := l.LoadAll()
	require.NoError(t, err)
	pend.Put(1, 2, "ping", nil)

	rep, err := l.ReloadAll()
	require.NoError(t, err)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, 2, reg.Len())
	assert.Zero(t, pend.Len(), "reload drops outstanding continuations")
}

func TestReload_NotLoaded(t *testing.T) {
	l := New(command.NewRegistry(), Catalog[command.Command]{"rps": cmdCtor("rps")}, nil, nil)
	assert.ErrorIs(t, l.Reload("rps"), ErrNotLoaded)
}

func TestInstall(t *testing.T) {
	reg := command.NewRegistry()
	l := New(reg, Catalog[command.Command]{"ping": cmdCtor("ping")}, nil, nil)
	_, err := l.LoadAll()
	require.NoError(t, err)

	require.NoError(t, l.Install("roll", cmdCtor("roll")))
	_, ok := reg.Resolve("roll")
	assert.True(t, ok)
	// Installed modules join the catalog so reload works on them too.
	require.NoError(t, l.Reload("roll"))

	assert.ErrorIs(t, l.Install("ping", cmdCtor("ping")), ErrConflict)
	assert.ErrorIs(t, l.Install("dice", cmdCtor("roll")), ErrInvalid)
}

func TestInstall_ConcurrentWithReload(t *testing.T) {
	reg := command.NewRegistry()
	l := New(reg, Catalog[command.Command]{"ping": cmdCtor("ping")}, nil, pending.NewStore())
	_, err := l.LoadAll()
	require.NoError(t, err)

	names := []string{"alpha", "bravo", "charlie", "delta"}
	errs := make(chan error, len(names)+10)
	done := make(chan struct{}, len(names)+1)
	for _, name := range names {
		go func(name string) {
			defer func() { done <- struct{}{} }()
			errs <- l.Install(name, cmdCtor(name))
		}(name)
	}
	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 10; i++ {
			errs <- l.Reload("ping")
		}
	}()
	for i := 0; i < len(names)+1; i++ {
		<-done
	}
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	for _, name := range names {
		_, ok := reg.Resolve(name)
		assert.True(t, ok, name)
	}
}
