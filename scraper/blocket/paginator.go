package blocket

import (
	apperrors "bostad-scraper/pkg/errors"
	"bostad-scraper/utils"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Paginator finds how many listing pages the index has.
type Paginator struct {
	Launcher  Launcher
	Selector  string
	Timeout   time.Duration
	PageParam string
}

// DiscoverLastPage loads indexURL and returns the highest page number
// linked from its pagination. It returns an ErrorTypePagination error when
// no page numbers are found.
func (p *Paginator) DiscoverLastPage(ctx context.Context, indexURL string) (int, error) {
	log := utils.Component("paginator")

	browser, err := p.Launcher.Launch(ctx)
	if err != nil {
		return 0, apperrors.NewPagination(indexURL, "could not launch browser", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return 0, apperrors.NewPagination(indexURL, "could not open page", err)
	}
	defer page.Close()

	if err := page.Navigate(indexURL); err != nil {
		return 0, apperrors.NewPagination(indexURL, "could not load index page", err)
	}

	found, err := page.WaitForSelector(p.Selector, p.Timeout)
	if err != nil {
		log.Warn().Err(err).Str("selector", p.Selector).Msg("Waiting for pagination failed, parsing what loaded")
	} else if !found {
		log.Warn().Str("selector", p.Selector).Dur("timeout", p.Timeout).Msg("Pagination links not found within timeout")
	}

	html, err := page.Content()
	if err != nil {
		return 0, apperrors.NewPagination(indexURL, "could not read index page", err)
	}

	lastPage, ok := LastPageFromHTML(html, p.PageParam)
	if !ok {
		return 0, apperrors.NewPagination(indexURL, "no page numbers found", nil)
	}

	log.Info().Int("last_page", lastPage).Msg("Discovered pagination")
	return lastPage, nil
}

// LastPageFromHTML returns the largest numeric anchor text among links whose
// href carries the page query parameter.
func LastPageFromHTML(html, pageParam string) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, false
	}

	token := pageParam + "="
	last, found := 0, false
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, token) {
			return
		}
		text := strings.TrimSpace(s.Text())
		if !isDigits(text) {
			return
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return
		}
		if !found || n > last {
			last, found = n, true
		}
	})

	return last, found
}

// GeneratePageURLs returns the URLs for pages 1..lastPage in order, built by
// rewriting only the pageParam query value of baseURL.
func GeneratePageURLs(baseURL, pageParam string, lastPage int) ([]string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	urls := make([]string, 0, max(lastPage, 0))
	for n := 1; n <= lastPage; n++ {
		pageURL := *u
		pageURL.RawQuery = withPageParam(u.RawQuery, pageParam, n)
		urls = append(urls, pageURL.String())
	}
	return urls, nil
}

// withPageParam sets pageParam=n in rawQuery, keeping every other pair
// byte-for-byte and in place.
func withPageParam(rawQuery, pageParam string, n int) string {
	token := pageParam + "=" + strconv.Itoa(n)
	if rawQuery == "" {
		return token
	}

	pairs := strings.Split(rawQuery, "&")
	replaced := false
	for i, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if key == pageParam {
			pairs[i] = token
			replaced = true
		}
	}
	if !replaced {
		pairs = append(pairs, token)
	}
	return strings.Join(pairs, "&")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
