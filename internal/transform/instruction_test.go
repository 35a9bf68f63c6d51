package transform

import (
	"strings"
	"testing"
)

func TestBuildMessageWithoutDirective(t *testing.T) {
	msg := BuildMessage("")
	if msg != brandInstruction {
		t.Fatalf("expected bare instruction, got %q", msg)
	}
}

func TestBuildMessageBlankDirectiveMatchesNone(t *testing.T) {
	if BuildMessage("   \t\n") != BuildMessage("") {
		t.Fatal("whitespace-only directive must not alter the message")
	}
}

func TestBuildMessageAppendsTrimmedDirective(t *testing.T) {
	msg := BuildMessage("  warm sunset tones  ")
	if !strings.HasPrefix(msg, brandInstruction) {
		t.Fatalf("instruction prefix lost: %q", msg)
	}
	if !strings.HasSuffix(msg, "Additional style direction: warm sunset tones") {
		t.Fatalf("directive not appended trimmed: %q", msg)
	}
}
