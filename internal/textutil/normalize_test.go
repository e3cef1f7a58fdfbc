package textutil

import "testing"

func TestNormalizeQuestionFoldsCaseAndSpace(t *testing.T) {
	a := NormalizeQuestion("What  is the Capital of FRANCE?")
	b := NormalizeQuestion("what is the capital of france?")
	if a != b {
		t.Fatalf("expected equal normalized forms, got %q vs %q", a, b)
	}
}

func TestNormalizeQuestionAppliesNFKC(t *testing.T) {
	// Fullwidth digits compatibility-normalize to ASCII.
	a := NormalizeQuestion("What is ２+２?")
	b := NormalizeQuestion("What is 2+2?")
	if a != b {
		t.Fatalf("expected NFKC-equal forms, got %q vs %q", a, b)
	}
}

func TestNormalizeQuestionDistinguishesDifferentText(t *testing.T) {
	a := NormalizeQuestion("Who painted the Mona Lisa?")
	b := NormalizeQuestion("Who sculpted the Mona Lisa?")
	if a == b {
		t.Fatal("different questions should not normalize to the same key")
	}
}

func TestSanitizeFileName(t *testing.T) {
	got := SanitizeFileName(` Quiz: Science/History? `)
	if got != "Quiz- Science-History" {
		t.Fatalf("unexpected sanitized name: %q", got)
	}
}
