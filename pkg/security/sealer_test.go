package security

import "testing"

func TestSealerRoundTrip(t *testing.T) {
	s := NewSealer("device-secret")
	sealed, err := s.Seal("bearer-token")
	if err != nil {
		t.Fatal(err)
	}
	if sealed == "bearer-token" {
		t.Fatal("value was not sealed")
	}
	got, err := s.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bearer-token" {
		t.Fatalf("got %q", got)
	}
}

func TestSealerRejectsOtherKey(t *testing.T) {
	sealed, _ := NewSealer("a").Seal("token")
	if _, err := NewSealer("b").Open(sealed); err == nil {
		t.Fatal("expected error opening with a different key")
	}
	if _, err := NewSealer("a").Open("c2hvcnQ="); err != ErrSealedTooShort {
		t.Fatalf("expected ErrSealedTooShort, got %v", err)
	}
}
