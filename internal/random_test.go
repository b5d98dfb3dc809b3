package internal

import (
	"strconv"
	"testing"
)

func TestNewCodeWidth(t *testing.T) {
	for digits := 4; digits <= 10; digits++ {
		for i := 0; i < 50; i++ {
			code, err := NewCode(digits)
			if err != nil {
				t.Fatalf("NewCode(%d) failed: %v", digits, err)
			}
			if len(code) != digits {
				t.Fatalf("NewCode(%d) returned %q with width %d", digits, code, len(code))
			}
			if code[0] == '0' {
				t.Fatalf("NewCode(%d) returned leading zero: %q", digits, code)
			}
			if _, err := strconv.ParseInt(code, 10, 64); err != nil {
				t.Fatalf("NewCode(%d) returned non-numeric %q", digits, code)
			}
		}
	}
}

func TestNewCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewCode(6)
		if err != nil {
			t.Fatalf("NewCode failed: %v", err)
		}
		n, err := strconv.ParseInt(code, 10, 64)
		if err != nil {
			t.Fatalf("non-numeric code %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}
}

func TestNewCodeRejectsBadWidths(t *testing.T) {
	for _, digits := range []int{-1, 0, 3, 11} {
		if _, err := NewCode(digits); err == nil {
			t.Fatalf("expected NewCode(%d) to fail", digits)
		}
	}
}

func TestNewCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewCode(6)
		if err != nil {
			t.Fatalf("NewCode failed: %v", err)
		}
		seen[code] = true
	}
	// 100 draws from 900k values colliding down to a handful would indicate a
	// broken generator.
	if len(seen) < 90 {
		t.Fatalf("expected mostly distinct codes, got %d distinct of 100", len(seen))
	}
}
