package errfmt

import (
	"strings"
	"testing"
)

func TestTruncate_ShortPassthrough(t *testing.T) {
	result := Truncate("short message")
	if result != "short message" {
		t.Errorf("Truncate() = %q, want %q", result, "short message")
	}
}

func TestTruncate_LongMessage(t *testing.T) {
	longMsg := strings.Repeat("x", MaxLen+500)
	result := Truncate(longMsg)
	if len(result) > MaxLen {
		t.Errorf("len(result) = %d, want <= %d", len(result), MaxLen)
	}
}

func TestTruncate_UTF8Truncation(t *testing.T) {
	prefix := strings.Repeat("x", MaxLen-2)
	input := prefix + "\U0001F600" // 4-byte emoji at boundary
	result := Truncate(input)
	if len(result) > MaxLen {
		t.Errorf("len(result) = %d, want <= %d", len(result), MaxLen)
	}
	for i, r := range result {
		if r == '�' {
			t.Errorf("invalid UTF-8 at byte %d", i)
			break
		}
	}
}

func TestSanitizeKind_Valid(t *testing.T) {
	result := SanitizeKind("not_ready")
	if result != "not_ready" {
		t.Errorf("SanitizeKind() = %q, want %q", result, "not_ready")
	}
}

func TestSanitizeKind_Empty(t *testing.T) {
	result := SanitizeKind("")
	if result != "" {
		t.Errorf("SanitizeKind() = %q, want %q", result, "")
	}
}

func TestSanitizeKind_ControlCharRejected(t *testing.T) {
	for _, raw := range []string{"not\x00ready", "not\nready", "not\tready", "\x00not_ready"} {
		if result := SanitizeKind(raw); result != "" {
			t.Errorf("SanitizeKind(%q) = %q, want empty (control char rejection)", raw, result)
		}
	}
}

func TestSanitizeKind_LongTruncated(t *testing.T) {
	long := strings.Repeat("a", MaxKindLen+50)
	result := SanitizeKind(long)
	if len(result) > MaxKindLen {
		t.Errorf("len(result) = %d, want <= %d", len(result), MaxKindLen)
	}
}

func TestSanitizeReason_Valid(t *testing.T) {
	result := SanitizeReason("graceful")
	if result != "graceful" {
		t.Errorf("SanitizeReason() = %q, want %q", result, "graceful")
	}
}

func TestSanitizeReason_ControlCharRejected(t *testing.T) {
	if result := SanitizeReason("grace\nful"); result != "" {
		t.Errorf("SanitizeReason() = %q, want empty (newline is control char)", result)
	}
}

func TestSanitizeReason_LongTruncated(t *testing.T) {
	long := strings.Repeat("r", MaxReasonLen+10)
	result := SanitizeReason(long)
	if len(result) > MaxReasonLen {
		t.Errorf("len(result) = %d, want <= %d", len(result), MaxReasonLen)
	}
}

func TestSanitizeReason_UTF8SafeTruncation(t *testing.T) {
	prefix := strings.Repeat("x", MaxReasonLen-2)
	input := prefix + "\U0001F600" // 4-byte emoji at boundary
	result := SanitizeReason(input)
	if len(result) > MaxReasonLen {
		t.Errorf("len(result) = %d, want <= %d", len(result), MaxReasonLen)
	}
	for i, r := range result {
		if r == '�' {
			t.Errorf("invalid UTF-8 at byte %d", i)
			break
		}
	}
}
