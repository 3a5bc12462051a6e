package contextx

import (
	"slices"
	"testing"
)

func TestWithActorRoundTrip(t *testing.T) {
	ctx := t.Context()
	a := Actor{
		Subject:  "user-1",
		ClientID: "client-42",
		Scopes:   []string{"stash.read", "stash.write"},
	}

	ctx = WithActor(ctx, a)
	got, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if got.Subject != a.Subject {
		t.Fatalf("Subject: got %q, want %q", got.Subject, a.Subject)
	}
	if got.ClientID != a.ClientID {
		t.Fatalf("ClientID: got %q, want %q", got.ClientID, a.ClientID)
	}
	if !slices.Equal(got.Scopes, a.Scopes) {
		t.Fatalf("Scopes: got %v, want %v", got.Scopes, a.Scopes)
	}
}

func TestActorFromContextMissing(t *testing.T) {
	_, ok := ActorFromContext(t.Context())
	if ok {
		t.Fatal("expected no actor in empty context")
	}
}

func TestActorHasScope(t *testing.T) {
	a := Actor{Subject: "user-1", Scopes: []string{"stash.read"}}
	if !a.HasScope("stash.read") {
		t.Fatal("expected actor to have stash.read")
	}
	if a.HasScope("stash.admin") {
		t.Fatal("did not expect actor to have stash.admin")
	}
}
