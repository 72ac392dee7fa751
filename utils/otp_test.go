package utils

import (
	"strconv"
	"testing"
)

func TestGenerateNumericOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateNumericOTP()
		if err != nil {
			t.Fatalf("GenerateNumericOTP: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
		seen[code] = true
	}
	// 100 draws from 900000 values colliding down to a handful would mean a
	// broken random source.
	if len(seen) < 50 {
		t.Fatalf("only %d distinct codes in 100 draws", len(seen))
	}
}
