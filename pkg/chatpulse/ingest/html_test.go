package ingest

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"<div>one</div><div>two</div>", "one two"},
		{"<script>alert(1)</script>visible", "visible"},
		{"<style>p{}</style><p>styled</p>", "styled"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
