package retrieval

import "testing"

func TestSanitizeHTMLIsIdempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"<b>bold</b> and <script>alert(1)</script>",
		"unterminated <i>tag",
		"already &amp; escaped",
		"raw & ampersand",
		"<div onclick=\"x\">hi</div>",
	}
	for _, in := range inputs {
		once := SanitizeHTML(in)
		twice := SanitizeHTML(once)
		if once != twice {
			t.Fatalf("SanitizeHTML not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestSanitizeHTMLStripsDisallowedTagsKeepingText(t *testing.T) {
	out := SanitizeHTML("<script>bad()</script>visible")
	if out != "bad()visible" {
		t.Fatalf("got %q, want disallowed tag stripped but text content kept", out)
	}
}

func TestSanitizeHTMLKeepsWhitelistedTags(t *testing.T) {
	out := SanitizeHTML("<b>bold</b>")
	if out != "<b>bold</b>" {
		t.Fatalf("got %q, want whitelisted tag preserved unchanged", out)
	}
}

func TestSanitizeHTMLAutoClosesUnterminatedTag(t *testing.T) {
	out := SanitizeHTML("<b>bold")
	if out != "<b>bold</b>" {
		t.Fatalf("got %q, want unclosed allowed tag auto-closed", out)
	}
}

func TestSanitizeHTMLEscapesBareAmpersandOnce(t *testing.T) {
	out := SanitizeHTML("a & b")
	if out != "a &amp; b" {
		t.Fatalf("got %q, want bare ampersand escaped", out)
	}
	if SanitizeHTML(out) != out {
		t.Fatalf("re-sanitizing %q should be a no-op", out)
	}
}

func TestSanitizeHTMLIdentityOnWhitelistedInput(t *testing.T) {
	in := "<b>bold</b> and &amp; already escaped"
	if out := SanitizeHTML(in); out != in {
		t.Fatalf("got %q, want identity for input with only whitelisted tags/escaped entities", out)
	}
}
