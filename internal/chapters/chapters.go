// Package chapters turns free-form chapter-list text into chapter titles and
// the dedup key used to group identical lists.
package chapters

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/julianstephens/chapterly/internal/models"
)

// PartPrefix marks a line that starts a new part in ParseParts input.
const PartPrefix = "#"

// Normalize strips every whitespace rune and lowercases the rest with the full
// Unicode mapping, so final sigma and the dotted capital I hash the same as in
// the web client. The result is only ever compared, never displayed.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			continue
		}
		b.WriteRune(r)
	}
	// Casers carry state and are not safe for concurrent use.
	return cases.Lower(language.Und).String(b.String())
}

// Hash is the 32-bit rolling hash h = h*31 + c over the UTF-16 code units of
// s, wrapping on overflow, rendered as the lowercase hex of its absolute value.
//
// It is not collision resistant. Distinct lists that collide share one chapter
// set.
func Hash(s string) string {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(cu)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

// Key is Hash(Normalize(text)).
func Key(text string) string {
	return Hash(Normalize(text))
}

// ParseList splits text into trimmed, non-empty lines, keeping their order.
func ParseList(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatList is the inverse of ParseList for already-trimmed titles.
func FormatList(titles []string) string {
	return strings.Join(titles, "\n")
}

// ParseParts reads a chapter list where lines beginning with "#" open a new
// part. Chapters before the first heading go into an unnamed part. When the
// text has no headings the returned parts are nil.
func ParseParts(text string) ([]models.Part, []string) {
	lines := ParseList(text)
	var (
		parts    []models.Part
		chapters []string
		sawPart  bool
	)
	for _, line := range lines {
		if strings.HasPrefix(line, PartPrefix) {
			sawPart = true
			name := strings.TrimSpace(strings.TrimLeft(line, PartPrefix))
			parts = append(parts, models.Part{Name: name, Chapters: []string{}})
			continue
		}
		chapters = append(chapters, line)
		if len(parts) == 0 {
			parts = append(parts, models.Part{Chapters: []string{}})
		}
		last := &parts[len(parts)-1]
		last.Chapters = append(last.Chapters, line)
	}
	if !sawPart {
		return nil, chapters
	}
	return parts, chapters
}

// TotalChapters counts the chapters across parts, or the flat list when the
// book has no parts.
func TotalChapters(parts []models.Part, flat []string) int {
	if len(parts) == 0 {
		return len(flat)
	}
	n := 0
	for _, p := range parts {
		n += len(p.Chapters)
	}
	return n
}
