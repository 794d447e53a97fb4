package upload

import "testing"

func TestCreatePresigned_RejectsUnsupportedType(t *testing.T) {
	c := New("secret")
	_, err := c.CreatePresigned("sample.txt", 100, "TXT", "abc", "user_001", 24)
	if err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestCreatePresigned_RejectsBadExtension(t *testing.T) {
	c := New("secret")
	_, err := c.CreatePresigned("sample.txt", 100, TypeVCF, "abc", "user_001", 24)
	if err == nil {
		t.Fatalf("expected error for bad extension")
	}
}

func TestCreatePresigned_RejectsOversizedFile(t *testing.T) {
	c := New("secret")
	_, err := c.CreatePresigned("sample.vcf", 200*bytesPerMiB, TypeVCF, "abc", "user_001", 24)
	if err == nil {
		t.Fatalf("expected error for oversized file")
	}
}

func TestCreatePresigned_IssuesValidTicket(t *testing.T) {
	c := New("secret")
	u, err := c.CreatePresigned("sample.vcf", 1024, TypeVCF, "abc123", "user_001", 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(u.UploadID) != 16 {
		t.Fatalf("expected 16-char upload id, got %q", u.UploadID)
	}
	if u.PresignedURL == "" {
		t.Fatalf("expected non-empty presigned url")
	}
}

func TestComplete_SucceedsOnMatchingChecksum(t *testing.T) {
	c := New("secret")
	u, err := c.CreatePresigned("sample.vcf", 1024, TypeVCF, "abc123", "user_001", 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	status, err := c.Complete(u.UploadID, "abc123")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", status)
	}
}

func TestComplete_FailsOnChecksumMismatch(t *testing.T) {
	c := New("secret")
	u, err := c.CreatePresigned("sample.vcf", 1024, TypeVCF, "abc123", "user_001", 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	status, err := c.Complete(u.UploadID, "wrong")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", status)
	}
}

func TestComplete_UnknownUpload(t *testing.T) {
	c := New("secret")
	if _, err := c.Complete("nope", "abc"); err == nil {
		t.Fatalf("expected error for unknown upload")
	}
}
