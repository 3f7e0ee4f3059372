package llm

import (
	"context"
	"errors"
	"testing"
)

func TestStubClient_DefaultResponse(t *testing.T) {
	c := NewStubClient()
	out, err := c.Complete(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Fatal("expected a non-empty canned response")
	}
}

func TestStubClient_SequencedResponses(t *testing.T) {
	c := NewStubClient("first", "second")
	first, _ := c.Complete(context.Background(), "p")
	second, _ := c.Complete(context.Background(), "p")
	third, _ := c.Complete(context.Background(), "p")
	if first != "first" || second != "second" {
		t.Fatalf("got %q, %q", first, second)
	}
	if third != "second" {
		t.Fatalf("expected the stub to repeat its last response once exhausted, got %q", third)
	}
}

func TestFailingStubClient(t *testing.T) {
	want := errors.New("boom")
	c := NewFailingStubClient(want)
	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestNew_DefaultsToStub(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != defaultStubModel {
		t.Fatalf("model = %q, want stub", c.Model())
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("carrier-pigeon"); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestCheckProviderStatus_StubAlwaysConfigured(t *testing.T) {
	statuses := CheckProviderStatus()
	for _, s := range statuses {
		if s.Provider == ProviderStub && !s.Configured {
			t.Fatal("stub provider should always report configured")
		}
	}
}
