package hash

import "testing"

func TestFromBytesRoundTripsThroughString(t *testing.T) {
	h := FromBytes([]byte("hello"))
	s := h.String()
	if len(s) != 32 {
		t.Fatalf("String() len = %d, want 32", len(s))
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("String() contains non-lowercase-hex rune %q", c)
		}
	}
	parsed, err := FromHexString(s)
	if err != nil {
		t.Fatalf("FromHexString error: %v", err)
	}
	if parsed != h {
		t.Fatalf("round-trip mismatch: %+v != %+v", parsed, h)
	}
}

func TestFromBytesDeterministic(t *testing.T) {
	a := FromBytes([]byte("same input"))
	b := FromBytes([]byte("same input"))
	if a != b {
		t.Fatal("expected identical input to hash identically")
	}
}

func TestEmptyInputIsStableAndNonZero(t *testing.T) {
	e1 := FromBytes(nil)
	e2 := FromBytes([]byte{})
	if e1 != e2 {
		t.Fatal("expected nil and empty slice to hash identically")
	}
	if e1.IsZero() {
		t.Fatal("expected empty-input hash to be distinguished non-null")
	}
	if e1 != Zero {
		t.Fatal("expected package Zero to equal FromBytes(nil)")
	}
}

func TestSentinelIsAllOnes(t *testing.T) {
	if Sentinel.Hi != ^uint64(0) || Sentinel.Lo != ^uint64(0) {
		t.Fatal("expected Sentinel to be all-ones")
	}
}
