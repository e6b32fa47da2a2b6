package broadcast

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	hexColorRe = regexp.MustCompile(`(?i)^#?[0-9a-f]{6}$`)
	httpURLRe  = regexp.MustCompile(`(?i)^https?://`)
)

// SanitizeColor normalizes a 6-hex-digit color to "#rrggbb" form.
// Empty or malformed input yields "".
func SanitizeColor(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" || !hexColorRe.MatchString(c) {
		return ""
	}
	if strings.HasPrefix(c, "#") {
		return c
	}
	return "#" + c
}

// ValidURL reports whether u looks like an http(s) URL.
func ValidURL(u string) bool {
	return httpURLRe.MatchString(strings.TrimSpace(u))
}

// BuildPayload assembles a Payload from raw user input, applying the
// field-level rules: oversize text is truncated, a bad color or image URL is
// dropped, and CTA entries that fail validation are skipped without affecting
// their siblings.
func BuildPayload(embed EmbedData, ctas []CTA) Payload {
	p := Payload{
		Embed: EmbedData{
			Title:       truncate(strings.TrimSpace(embed.Title), MaxTitle),
			Description: truncate(strings.TrimSpace(embed.Description), MaxDescription),
			Color:       SanitizeColor(embed.Color),
			Footer:      truncate(strings.TrimSpace(embed.Footer), MaxFooter),
		},
	}
	if img := strings.TrimSpace(embed.ImageURL); ValidURL(img) {
		p.Embed.ImageURL = img
	}
	p.CTAs = FilterCTAs(ctas)
	return p
}

// FilterCTAs drops entries missing a label or URL, or whose URL is not
// http(s), truncates labels, and caps the result at MaxCTAs.
func FilterCTAs(ctas []CTA) []CTA {
	out := make([]CTA, 0, len(ctas))
	for _, c := range ctas {
		label := strings.TrimSpace(c.Label)
		url := strings.TrimSpace(c.URL)
		if label == "" || url == "" || !ValidURL(url) {
			continue
		}
		out = append(out, CTA{Label: truncate(label, MaxCTALabel), URL: url})
		if len(out) == MaxCTAs {
			break
		}
	}
	return out
}

// Layout groups the valid CTAs into button rows: up to RowSize per row,
// at most MaxCTARows rows (25 interactive elements total).
func Layout(ctas []CTA) [][]CTA {
	valid := FilterCTAs(ctas)
	if len(valid) == 0 {
		return nil
	}
	rows := make([][]CTA, 0, MaxCTARows)
	for i := 0; i < len(valid); i += RowSize {
		end := i + RowSize
		if end > len(valid) {
			end = len(valid)
		}
		rows = append(rows, valid[i:end])
	}
	return rows
}

// truncate cuts s to at most n characters. Limits are character counts, not
// byte counts, so multibyte text inside the limit passes through untouched
// and a cut never splits a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
