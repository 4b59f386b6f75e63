package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize_NoArtifacts(t *testing.T) {
	original := "## Key Points\n- Fact A\n- Fact B"
	clean := Sanitize(original)
	if clean != original {
		t.Fatalf("expected no change, got %q", clean)
	}
}

func TestSanitize_RemovesBanners(t *testing.T) {
	raw := ">>>>>>>> some banner\nACTUAL CONTENT\n>>>>>>>> end banner"
	clean := Sanitize(raw)
	if clean != "ACTUAL CONTENT" {
		t.Fatalf("expected %q, got %q", "ACTUAL CONTENT", clean)
	}
}

func TestSanitize_RemovesStackedLeadingBanners(t *testing.T) {
	raw := ">>>>>>>> USING AUTO REPLY\n>>>>>>>> NO HUMAN INPUT RECEIVED\nThe real post body."
	clean := Sanitize(raw)
	if clean != "The real post body." {
		t.Fatalf("expected banners stripped, got %q", clean)
	}
}

func TestSanitize_RemovesTerminateSentinel(t *testing.T) {
	raw := "The final paragraph of the post.\n\nTERMINATE"
	clean := Sanitize(raw)
	if clean != "The final paragraph of the post." {
		t.Fatalf("expected sentinel stripped, got %q", clean)
	}
}

func TestSanitize_KeepsWordsEndingInTerminate(t *testing.T) {
	cases := []string{
		"Daleks shout EXTERMINATE",
		"The villains exterminate.",
	}
	for _, raw := range cases {
		if clean := Sanitize(raw); clean != raw {
			t.Errorf("expected %q untouched, got %q", raw, clean)
		}
	}

	// The bare sentinel is still stripped, with or without punctuation.
	if clean := Sanitize("The closing paragraph.\nTERMINATE!"); clean != "The closing paragraph." {
		t.Errorf("expected sentinel stripped, got %q", clean)
	}
}

func TestSanitize_RemovesThinkTags(t *testing.T) {
	raw := "<think>planning the outline here</think>\n# The Post\n\nBody text."
	clean := Sanitize(raw)
	if strings.Contains(clean, "planning the outline") {
		t.Fatalf("expected think content removed, got %q", clean)
	}
	if !strings.Contains(clean, "# The Post") {
		t.Fatalf("expected post content preserved, got %q", clean)
	}
}

func TestSanitize_TrimsWhitespace(t *testing.T) {
	clean := Sanitize("  \n\ncontent here\n\n  ")
	if clean != "content here" {
		t.Fatalf("expected trimmed content, got %q", clean)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain content",
		">>>>>>>> some banner\nACTUAL CONTENT\n>>>>>>>> end banner",
		">>>>>>>> a\n>>>>>>>> b\nbody\nTERMINATE",
		"<think>x</think>answer TERMINATE",
		"   \t \n ",
		"ends with banner only\n>>>>>>>> TERMINATING RUN",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("sanitize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Fatalf("expected empty output for empty input, got %q", got)
	}
}

func TestStripThinkTags(t *testing.T) {
	raw := "<thinking>reasoning</thinking>final answer"
	if got := StripThinkTags(raw); got != "final answer" {
		t.Fatalf("expected %q, got %q", "final answer", got)
	}
	if !ContainsThinkTags(raw) {
		t.Fatal("expected think tags to be detected")
	}
	if ContainsThinkTags("no tags here") {
		t.Fatal("expected no think tags detected")
	}
}
