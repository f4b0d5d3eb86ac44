package render

import "testing"

func TestExcerptStripsMarkup(t *testing.T) {
	html := `<h1>Title</h1><p>First <b>bold</b> line.</p><script>alert(1)</script><p>Second</p>`
	if got := Excerpt(html, 0); got != "Title First bold line. Second" {
		t.Fatalf("Excerpt = %q", got)
	}
}

func TestExcerptPlainTextAndTruncation(t *testing.T) {
	if got := Excerpt("  just   plain\ntext ", 0); got != "just plain text" {
		t.Fatalf("Excerpt plain = %q", got)
	}
	if got := Excerpt("héllo wörld again", 11); got != "héllo wörld…" {
		t.Fatalf("Excerpt truncated = %q", got)
	}
	if got := Excerpt("hello world", 6); got != "hello…" {
		t.Fatalf("Excerpt trailing space = %q", got)
	}
	if got := Excerpt("short", 10); got != "short" {
		t.Fatalf("Excerpt short = %q", got)
	}
}

func TestFirstImage(t *testing.T) {
	html := `<p>x</p><img alt="no src"><img src=" /a.png "><img src="/b.png">`
	if got := FirstImage(html); got != "/a.png" {
		t.Fatalf("FirstImage = %q", got)
	}
	if got := FirstImage("no images"); got != "" {
		t.Fatalf("FirstImage = %q, want empty", got)
	}
}
