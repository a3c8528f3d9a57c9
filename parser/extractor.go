package parser

import (
	"bostad-scraper/models"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns one rendered listing page into listing records.
type Extractor struct {
	loc    Locators
	sizeRe *regexp.Regexp
	base   *url.URL
}

// NewExtractor compiles the locators into an Extractor.
func NewExtractor(loc Locators) (*Extractor, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	sizeRe := regexp.MustCompile(loc.SizePattern)

	var base *url.URL
	if loc.BaseOrigin != "" {
		u, err := url.Parse(loc.BaseOrigin)
		if err != nil {
			return nil, fmt.Errorf("invalid base_origin %q: %w", loc.BaseOrigin, err)
		}
		base = u
	}

	return &Extractor{loc: loc, sizeRe: sizeRe, base: base}, nil
}

// ExtractListings parses rawHTML into listings in document order.
// Malformed or empty input yields an empty slice; missing fields default to
// nil or "".
func (e *Extractor) ExtractListings(rawHTML string) []models.Listing {
	listings := []models.Listing{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return listings
	}

	doc.Find(e.loc.Listing).Each(func(_ int, s *goquery.Selection) {
		if listing, ok := e.extractListing(s); ok {
			listings = append(listings, listing)
		}
	})

	return listings
}

func (e *Extractor) extractListing(s *goquery.Selection) (models.Listing, bool) {
	label, _ := s.Attr(e.loc.LabelAttr)

	// Navigation links carry a label too, but never the separator.
	propertyType, locationStr, found := strings.Cut(label, e.loc.Separator)
	if !found {
		return models.Listing{}, false
	}

	address, location, hasArea := strings.Cut(locationStr, ", ")
	if !hasArea {
		address = locationStr
		location = locationStr
	}

	available, until := e.dates(s)

	return models.Listing{
		Location:       strings.TrimSpace(location),
		Address:        strings.TrimSpace(address),
		PropertyType:   strings.TrimSpace(propertyType),
		SizeSqm:        e.size(s),
		Price:          e.price(s),
		AvailableFrom:  available,
		AvailableUntil: until,
		URL:            e.resolveURL(s),
	}, true
}

func (e *Extractor) resolveURL(s *goquery.Selection) string {
	href, exists := s.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		if strings.HasPrefix(href, "/") && e.base != nil {
			return strings.TrimRight(e.loc.BaseOrigin, "/") + href
		}
		return ""
	}
	if ref.IsAbs() || e.base == nil {
		return ref.String()
	}
	return e.base.ResolveReference(ref).String()
}

func (e *Extractor) size(s *goquery.Selection) *int {
	text := childText(s, e.loc.Size)
	m := e.sizeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func (e *Extractor) price(s *goquery.Selection) *int {
	return ParseDigits(childText(s, e.loc.Price))
}

func (e *Extractor) dates(s *goquery.Selection) (string, string) {
	if e.loc.Dates == "" {
		return "", ""
	}
	container := s.Find(e.loc.Dates).First()
	if container.Length() == 0 {
		return "", ""
	}

	var dates []string
	container.Find(e.loc.DateItem).Each(func(_ int, span *goquery.Selection) {
		dates = append(dates, strings.TrimSpace(span.Text()))
	})

	var available, until string
	if len(dates) > 0 {
		available = dates[0]
	}
	if len(dates) > 1 {
		until = dates[1]
	}
	return available, until
}

func childText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// ParseDigits drops every non-digit rune and parses the rest.
// "12 000 kr" gives 12000; text without digits gives nil.
func ParseDigits(text string) *int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return nil
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &v
}
