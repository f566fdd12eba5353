package module

import (
	"strings"
	"sync"
	"testing"
)

func recordsModule(out string) fakeModule {
	return fakeModule{name: "records", ports: bundle{Out: sinkNamed(out)}}
}

type sinkNamed string

func (s sinkNamed) Sink() string { return string(s) }

// expectPanic fails unless fn panics with a message containing want
func expectPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", want)
		}
		msg, _ := r.(string)
		if !strings.Contains(msg, want) {
			t.Fatalf("panic = %v, want it to contain %q", r, want)
		}
	}()
	fn()
}

func TestRegistry_RegisterAndPortsAs(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(recordsModule("jsonl"))

	got, ok := PortsAs[bundle]("records")
	if !ok || got.Out.Sink() != "jsonl" {
		t.Fatalf("PortsAs = %+v, %v", got, ok)
	}
	if got := MustPortsAs[bundle]("records"); got.Out.Sink() != "jsonl" {
		t.Fatalf("MustPortsAs = %+v", got)
	}
}

func TestRegistry_MissingName(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	got, ok := PortsAs[bundle]("missing")
	if ok {
		t.Fatal("expected ok=false for missing name")
	}
	if got.Out != nil || got.Other != nil {
		t.Fatalf("expected zero value, got %+v", got)
	}
	expectPanic(t, `registered as "missing"`, func() { _ = MustPortsAs[bundle]("missing") })
}

func TestRegistry_TypeMismatch(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(recordsModule("jsonl"))

	if _, ok := PortsAs[int]("records"); ok {
		t.Fatal("expected ok=false for type mismatch")
	}
	expectPanic(t, "no ports of type int", func() { _ = MustPortsAs[int]("records") })
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(recordsModule("jsonl"))
	Register(recordsModule("pg"))

	if got := MustPortsAs[bundle]("records"); got.Out.Sink() != "pg" {
		t.Fatalf("expected the later module to win, got %q", got.Out.Sink())
	}
}

func TestRegistry_ResetClears(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(recordsModule("jsonl"))
	Reset()

	if _, ok := PortsAs[bundle]("records"); ok {
		t.Fatal("expected ok=false after reset")
	}
}

func TestRegistry_ConcurrentRegisterAndRead(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			Register(recordsModule("ch"))
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, _ = PortsAs[bundle]("records")
		}
	}()

	wg.Wait()

	if got := MustPortsAs[bundle]("records"); got.Out.Sink() != "ch" {
		t.Fatalf("unexpected final value %+v", got)
	}
}
