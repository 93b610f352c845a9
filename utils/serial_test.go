package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSerialKeyFormat(t *testing.T) {
	start := time.Date(2026, 9, 7, 15, 0, 0, 0, time.UTC)
	serial, err := GenerateSerialKey(start)
	if err != nil {
		t.Fatalf("GenerateSerialKey: %v", err)
	}
	parts := strings.Split(serial, "-")
	if len(parts) != 3 {
		t.Fatalf("serial %q, want BK-<date>-<suffix>", serial)
	}
	if parts[0] != "BK" {
		t.Errorf("prefix = %q, want BK", parts[0])
	}
	if parts[1] != "20260907" {
		t.Errorf("date = %q, want 20260907", parts[1])
	}
	if len(parts[2]) != SerialSuffixLength {
		t.Errorf("suffix length = %d, want %d", len(parts[2]), SerialSuffixLength)
	}
}

func TestGenerateSerialKeyUsesUTCDate(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC the same day; the prefix must follow UTC.
	loc := time.FixedZone("UTC+2", 2*3600)
	start := time.Date(2026, 9, 8, 0, 30, 0, 0, loc)
	serial, err := GenerateSerialKey(start)
	if err != nil {
		t.Fatalf("GenerateSerialKey: %v", err)
	}
	if !strings.Contains(serial, "-20260907-") {
		t.Errorf("serial %q, want UTC date 20260907", serial)
	}
}

func TestGenerateSerialKeySuffixVaries(t *testing.T) {
	start := time.Date(2026, 9, 7, 15, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		serial, err := GenerateSerialKey(start)
		if err != nil {
			t.Fatalf("GenerateSerialKey: %v", err)
		}
		seen[serial] = true
	}
	// 100 draws from a 32^6 space colliding down to a handful would mean
	// the suffix is not random at all.
	if len(seen) < 95 {
		t.Errorf("only %d distinct serials in 100 draws", len(seen))
	}
}

func TestGenerateVerificationCodeLength(t *testing.T) {
	for _, n := range []int{4, 6, 8} {
		code, err := GenerateVerificationCode(n)
		if err != nil {
			t.Fatalf("GenerateVerificationCode(%d): %v", n, err)
		}
		if len(code) != n {
			t.Errorf("len(code) = %d, want %d", len(code), n)
		}
	}
}
