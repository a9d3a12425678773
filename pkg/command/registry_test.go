package command

import (
	"context"
	"testing"
	"time"
)

type fakeCommand struct {
	meta Meta
}

func (f *fakeCommand) Meta() Meta                              { return f.meta }
func (f *fakeCommand) OnStart(context.Context, *Request) error { return nil }

type fakeEvent struct {
	meta Meta
}

func (f *fakeEvent) Meta() Meta                                     { return f.meta }
func (f *fakeEvent) OnMessage(context.Context, *EventRequest) error { return nil }

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeCommand{meta: Meta{Name: "Weather", Aliases: []string{"w"}}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, word := range []string{"weather", "WEATHER", "w", "W"} {
		if _, ok := r.Resolve(word); !ok {
			t.Fatalf("expected %q to resolve", word)
		}
	}
	if _, ok := r.Resolve("forecast"); ok {
		t.Fatal("unexpected resolve for unknown word")
	}
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := NewRegistry()
	first := &fakeCommand{meta: Meta{Name: "ping"}}
	if err := r.Register(first); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := r.Register(&fakeCommand{meta: Meta{Name: "ping"}}); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}

	got, ok := r.Get("ping")
	if !ok || got != Command(first) {
		t.Fatalf("registry must retain the first module, got %v ok=%v", got, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
}

func TestRegistry_AliasCollisionRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeCommand{meta: Meta{Name: "weather", Aliases: []string{"w"}}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(&fakeCommand{meta: Meta{Name: "wiki", Aliases: []string{"w"}}}); err == nil {
		t.Fatal("expected alias collision to be rejected")
	}
	if err := r.Register(&fakeCommand{meta: Meta{Name: "w"}}); err == nil {
		t.Fatal("expected name/alias collision to be rejected")
	}
}

func TestRegistry_SelfAliasRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeCommand{meta: Meta{Name: "echo", Aliases: []string{"echo"}}}); err == nil {
		t.Fatal("expected alias duplicating the name to be rejected")
	}
	if err := r.Register(&fakeCommand{meta: Meta{Name: "echo", Aliases: []string{"e", "e"}}}); err == nil {
		t.Fatal("expected duplicate aliases to be rejected")
	}
}

func TestRegistry_NegativeCooldownRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeCommand{meta: Meta{Name: "bad", Cooldown: -time.Second}}); err == nil {
		t.Fatal("expected negative cooldown to be rejected")
	}
}

func TestRegistry_UnregisterFreesAliases(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeCommand{meta: Meta{Name: "weather", Aliases: []string{"w"}}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Unregister("weather") {
		t.Fatal("unregister reported nothing removed")
	}
	if _, ok := r.Resolve("w"); ok {
		t.Fatal("alias still resolvable after unregister")
	}
	if err := r.Register(&fakeCommand{meta: Meta{Name: "w"}}); err != nil {
		t.Fatalf("identifier not freed after unregister: %v", err)
	}
}

func TestRegistry_ReplaceKeepsSizeStable(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeCommand{meta: Meta{Name: "ping", Aliases: []string{"p"}}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	replacement := &fakeCommand{meta: Meta{Name: "ping", Aliases: []string{"pong"}}}
	if err := r.Replace(replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if r.Len() != 1 {
		t.Fatalf("len after replace = %d, want 1", r.Len())
	}
	if _, ok := r.Resolve("p"); ok {
		t.Fatal("old alias survived the replace")
	}
	if got, _ := r.Resolve("pong"); got != Command(replacement) {
		t.Fatal("new alias does not resolve to replacement")
	}

	// A genuinely new command grows the registry by exactly one.
	if err := r.Replace(&fakeCommand{meta: Meta{Name: "uptime"}}); err != nil {
		t.Fatalf("replace new: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("len after new replace = %d, want 2", r.Len())
	}
}

func TestRegistry_ReplaceRollsBackOnForeignCollision(t *testing.T) {
	r := NewRegistry()
	original := &fakeCommand{meta: Meta{Name: "ping", Aliases: []string{"p"}}}
	if err := r.Register(original); err != nil {
		t.Fatalf("register ping: %v", err)
	}
	if err := r.Register(&fakeCommand{meta: Meta{Name: "uptime", Aliases: []string{"up"}}}); err != nil {
		t.Fatalf("register uptime: %v", err)
	}

	// Replacement for ping claims an alias owned by uptime; must fail and
	// leave the original ping intact.
	if err := r.Replace(&fakeCommand{meta: Meta{Name: "ping", Aliases: []string{"up"}}}); err == nil {
		t.Fatal("expected replace to fail on foreign alias collision")
	}
	got, ok := r.Get("ping")
	if !ok || got != Command(original) {
		t.Fatal("original ping module not restored after failed replace")
	}
	if _, ok := r.Resolve("p"); !ok {
		t.Fatal("original alias not restored after failed replace")
	}
}

func TestRegistry_EventsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"greet", "activity", "audit"} {
		if err := r.RegisterEvent(&fakeEvent{meta: Meta{Name: name}}); err != nil {
			t.Fatalf("register event %s: %v", name, err)
		}
	}
	if err := r.RegisterEvent(&fakeEvent{meta: Meta{Name: "greet"}}); err == nil {
		t.Fatal("expected duplicate event name to be rejected")
	}

	events := r.Events()
	want := []string{"greet", "activity", "audit"}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Meta().Name != want[i] {
			t.Fatalf("event[%d] = %q, want %q", i, ev.Meta().Name, want[i])
		}
	}

	r.UnregisterEvent("activity")
	events = r.Events()
	if len(events) != 2 || events[0].Meta().Name != "greet" || events[1].Meta().Name != "audit" {
		t.Fatalf("unexpected events after unregister: %+v", events)
	}
}

func TestParseAccessLevel(t *testing.T) {
	cases := map[string]AccessLevel{
		"anyone":        AccessAnyone,
		"":              AccessAnyone,
		"administrator": AccessAdministrator,
		"admin":         AccessAdministrator,
		"vip":           AccessVIP,
		"owner":         AccessOwner,
		"dev":           AccessOwner,
		"Developer":     AccessOwner,
		"whatever":      AccessAnyone,
	}
	for in, want := range cases {
		if got := ParseAccessLevel(in); got != want {
			t.Fatalf("ParseAccessLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
