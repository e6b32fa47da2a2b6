package broadcast

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeColor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want string
	}{
		{"#716360", "#716360"},
		{"716360", "#716360"},
		{"  AABBCC ", "#AABBCC"},
		{"", ""},
		{"#71636", ""},
		{"not-a-color", ""},
		{"#7163601", ""},
	}
	for _, tt := range tests {
		if got := SanitizeColor(tt.raw); got != tt.want {
			t.Errorf("SanitizeColor(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFilterCTAsDropsInvalidEntries(t *testing.T) {
	t.Parallel()
	in := []CTA{
		{Label: "GitHub", URL: "https://github.com"},
		{Label: "", URL: "https://example.com"},
		{Label: "No URL", URL: ""},
		{Label: "FTP", URL: "ftp://example.com"},
		{Label: "Docs", URL: "http://docs.example.com"},
	}
	got := FilterCTAs(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid CTAs, got %d: %+v", len(got), got)
	}
	if got[0].Label != "GitHub" || got[1].Label != "Docs" {
		t.Fatalf("siblings not preserved in order: %+v", got)
	}
}

func TestLayoutCapsAtTwentyFive(t *testing.T) {
	t.Parallel()
	var ctas []CTA
	for i := 0; i < 40; i++ {
		ctas = append(ctas, CTA{Label: fmt.Sprintf("b%d", i), URL: "https://example.com"})
	}
	rows := Layout(ctas)
	if len(rows) != MaxCTARows {
		t.Fatalf("rows = %d, want %d", len(rows), MaxCTARows)
	}
	total := 0
	for _, r := range rows {
		if len(r) > RowSize {
			t.Fatalf("row has %d buttons, want at most %d", len(r), RowSize)
		}
		total += len(r)
	}
	if total != MaxCTAs {
		t.Fatalf("total buttons = %d, want %d", total, MaxCTAs)
	}
}

func TestLayoutEmpty(t *testing.T) {
	t.Parallel()
	if rows := Layout(nil); rows != nil {
		t.Fatalf("expected nil layout, got %+v", rows)
	}
	if rows := Layout([]CTA{{Label: "x", URL: "nope"}}); rows != nil {
		t.Fatalf("expected nil layout for all-invalid input, got %+v", rows)
	}
}

func TestBuildPayloadTruncatesAndDrops(t *testing.T) {
	t.Parallel()
	p := BuildPayload(EmbedData{
		Title:       strings.Repeat("t", MaxTitle+10),
		Description: strings.Repeat("d", MaxDescription+1),
		Color:       "zzz",
		ImageURL:    "javascript:alert(1)",
		Footer:      strings.Repeat("f", MaxFooter+5),
	}, []CTA{{Label: strings.Repeat("l", 100), URL: "https://x.dev"}})

	if len(p.Embed.Title) != MaxTitle {
		t.Errorf("title len = %d, want %d", len(p.Embed.Title), MaxTitle)
	}
	if len(p.Embed.Description) != MaxDescription {
		t.Errorf("description len = %d, want %d", len(p.Embed.Description), MaxDescription)
	}
	if len(p.Embed.Footer) != MaxFooter {
		t.Errorf("footer len = %d, want %d", len(p.Embed.Footer), MaxFooter)
	}
	if p.Embed.Color != "" {
		t.Errorf("bad color kept: %q", p.Embed.Color)
	}
	if p.Embed.ImageURL != "" {
		t.Errorf("bad image URL kept: %q", p.Embed.ImageURL)
	}
	if len(p.CTAs) != 1 || len(p.CTAs[0].Label) != MaxCTALabel {
		t.Errorf("CTA label not truncated: %+v", p.CTAs)
	}
}

func TestBuildPayloadCountsCharactersNotBytes(t *testing.T) {
	t.Parallel()

	// 200 two-byte characters: 400 bytes but well inside the 256-char limit,
	// so the title must survive untouched.
	inLimit := strings.Repeat("é", 200)
	p := BuildPayload(EmbedData{Title: inLimit, Description: "d"}, nil)
	if p.Embed.Title != inLimit {
		t.Errorf("in-limit multibyte title modified: %d runes kept, want 200",
			utf8.RuneCountInString(p.Embed.Title))
	}

	p = BuildPayload(EmbedData{
		Title:       strings.Repeat("世", MaxTitle+50),
		Description: strings.Repeat("界", MaxDescription+1),
		Footer:      strings.Repeat("é", MaxFooter+5),
	}, []CTA{{Label: strings.Repeat("ü", MaxCTALabel+10), URL: "https://x.dev"}})

	checks := []struct {
		field string
		got   string
		want  int
	}{
		{"title", p.Embed.Title, MaxTitle},
		{"description", p.Embed.Description, MaxDescription},
		{"footer", p.Embed.Footer, MaxFooter},
		{"cta label", p.CTAs[0].Label, MaxCTALabel},
	}
	for _, c := range checks {
		if n := utf8.RuneCountInString(c.got); n != c.want {
			t.Errorf("%s rune count = %d, want %d", c.field, n, c.want)
		}
		if !utf8.ValidString(c.got) {
			t.Errorf("%s truncated into invalid UTF-8", c.field)
		}
	}
}
