package upc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	bracketed = regexp.MustCompile(`[\(\[\{][^\)\]\}]*[\)\]\}]`)
	// Packaging and format noise commonly appended to retail listings.
	formatNoise = regexp.MustCompile(`(?i)\b(` + strings.Join([]string{
		`blu[\s-]?ray`, `dvd`, `4k`, `uhd`, `ultra\s+hd`, `hd`, `digital(\s+copy|\s+code)?`,
		`widescreen`, `full\s*screen`, `region\s*\d`, `\d+[\s-]*discs?`, `\d+-disc`,
		`combo\s+pack`, `steelbook`, `slipcover`, `ntsc`, `pal`, `includes`,
	}, "|") + `)\b`)
	spaces = regexp.MustCompile(`\s+`)
)

// CleanTitle turns a retail product listing ("INCEPTION (BLU-RAY + DVD) [2010]")
// into a searchable movie title ("Inception"). Mixed-case input keeps its casing.
func CleanTitle(product string) string {
	s := bracketed.ReplaceAllString(product, " ")
	s = formatNoise.ReplaceAllString(s, " ")
	s = strings.NewReplacer("+", " ", "/", " ", "|", " ").Replace(s)
	s = spaces.ReplaceAllString(s, " ")
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == ':' || r == ',' || r == '&'
	})
	if s == "" {
		return ""
	}
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		// Casers carry state, so each call gets its own.
		s = cases.Title(language.English).String(s)
	}
	return s
}
