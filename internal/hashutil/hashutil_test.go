package hashutil

import "testing"

func TestHasherDeterministic(t *testing.T) {
	a := NewHasher().WriteString("owner/repo").WriteString("main").Sum()
	b := NewHasher().WriteString("owner/repo").WriteString("main").Sum()
	if a != b {
		t.Fatalf("same inputs produced different hashes: %s vs %s", a, b)
	}
}

func TestHasherLengthPrefixAvoidsCollision(t *testing.T) {
	a := NewHasher().WriteString("ab").WriteString("c").Sum()
	b := NewHasher().WriteString("a").WriteString("bc").Sum()
	if a == b {
		t.Fatalf("expected length-prefixing to distinguish (%q,%q) from (%q,%q)", "ab", "c", "a", "bc")
	}
}

func TestHasherOrderSensitive(t *testing.T) {
	a := NewHasher().WriteString("x").WriteString("y").Sum()
	b := NewHasher().WriteString("y").WriteString("x").Sum()
	if a == b {
		t.Fatalf("expected different write order to produce different hashes")
	}
}

func TestSumIsHex(t *testing.T) {
	sum := NewHasher().WriteString("hello").Sum()
	if len(sum) != 64 {
		t.Fatalf("expected a 64-char hex SHA-256 digest, got %d chars: %s", len(sum), sum)
	}
	for _, r := range sum {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Fatalf("digest contains non-hex character %q", r)
		}
	}
}
