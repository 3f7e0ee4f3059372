package hooks

import (
	"errors"
	"testing"
	"time"
)

func TestFireBeforeCall_InvokesRegistered(t *testing.T) {
	Reset()
	defer Reset()
	var gotName string
	Register(Set{BeforeCall: func(name string, input map[string]any) { gotName = name }})
	FireBeforeCall("demo", map[string]any{"x": 1})
	if gotName != "demo" {
		t.Fatalf("gotName = %q, want demo", gotName)
	}
}

func TestFireAfterCall_MultipleHooksAllRun(t *testing.T) {
	Reset()
	defer Reset()
	var a, b bool
	Register(Set{AfterCall: func(string, []byte, time.Duration) { a = true }})
	Register(Set{AfterCall: func(string, []byte, time.Duration) { b = true }})
	FireAfterCall("demo", []byte("{}"), time.Millisecond)
	if !a || !b {
		t.Fatalf("expected both hooks to run, got a=%v b=%v", a, b)
	}
}

func TestFireOnError_PanicIsSwallowed(t *testing.T) {
	Reset()
	defer Reset()
	var secondRan bool
	Register(Set{OnError: func(string, error, map[string]any) { panic("boom") }})
	Register(Set{OnError: func(string, error, map[string]any) { secondRan = true }})
	FireOnError("demo", errors.New("x"), nil)
	if !secondRan {
		t.Fatal("a panicking hook must not prevent subsequent hooks from running")
	}
}

func TestFireBeforeCall_NilFieldsSkipped(t *testing.T) {
	Reset()
	defer Reset()
	Register(Set{})
	FireBeforeCall("demo", nil) // must not panic
}
