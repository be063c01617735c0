package ulid

import "testing"

func TestGenerateStringLength(t *testing.T) {
	s := GenerateString()
	if len(s) != 26 {
		t.Fatalf("ulid length = %d, want 26", len(s))
	}
}

func TestGenerateOrderedWithinProcess(t *testing.T) {
	prev := Generate()
	for i := 0; i < 200; i++ {
		next := Generate()
		if next.Compare(prev) <= 0 {
			t.Fatalf("ulid not strictly increasing: %s after %s", next, prev)
		}
		prev = next
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := Generate()
	parsed, err := Parse(id.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Compare(id) != 0 {
		t.Fatalf("round trip mismatch")
	}
	if IsZero(parsed) {
		t.Fatalf("generated ulid should not be zero")
	}
}
