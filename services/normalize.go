package services

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LocationNormalizer maps free-text locations onto a fixed set of area
// names. Locations matching no known area are capitalized instead.
type LocationNormalizer struct {
	areas []string
	upper cases.Caser
	lower cases.Caser
}

func NewLocationNormalizer(knownAreas []string) *LocationNormalizer {
	areas := make([]string, 0, len(knownAreas))
	for _, a := range knownAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}
	return &LocationNormalizer{
		areas: areas,
		upper: cases.Upper(language.Swedish),
		lower: cases.Lower(language.Swedish),
	}
}

// Normalize returns the first known area contained in location, compared
// case-insensitively, or location with only its first letter upper-cased.
func (n *LocationNormalizer) Normalize(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return "Unknown"
	}

	folded := n.lower.String(location)
	for _, area := range n.areas {
		if strings.Contains(folded, n.lower.String(area)) {
			return area
		}
	}

	_, size := utf8.DecodeRuneInString(location)
	return n.upper.String(location[:size]) + n.lower.String(location[size:])
}
