package snowflake

import "testing"

func TestNewGeneratorRejectsBadNode(t *testing.T) {
	if _, err := NewGenerator(-1); err == nil {
		t.Fatalf("expected error for negative node id")
	}
	if _, err := NewGenerator(MaxNodeID + 1); err == nil {
		t.Fatalf("expected error for node id above max")
	}
}

func TestGenerateMonotonicUnique(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	seen := make(map[int64]bool)
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		if id < prev {
			t.Fatalf("id went backwards: %d after %d", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestGlobalGenerate(t *testing.T) {
	a := Generate()
	b := Generate()
	if a == b {
		t.Fatalf("global generator produced duplicates")
	}
}
