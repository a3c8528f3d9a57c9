package blocket

import (
	"bostad-scraper/models"
	apperrors "bostad-scraper/pkg/errors"
	"bostad-scraper/utils"
	"context"
	"fmt"
	"math/rand"
	"time"
)

// PageWriter stores the raw HTML of one fetched page.
type PageWriter interface {
	SavePage(pageNumber int, html string) error
}

// PageFetcher loads listing pages one at a time in a shared browser.
type PageFetcher struct {
	Launcher        Launcher
	ContentSelector string
	ContentTimeout  time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	MinDelay        time.Duration
	MaxDelay        time.Duration

	// Sleep and Rand default to time.Sleep and the global source.
	Sleep func(time.Duration)
	Rand  *rand.Rand
}

func (f *PageFetcher) sleep(d time.Duration) {
	if f.Sleep != nil {
		f.Sleep(d)
		return
	}
	time.Sleep(d)
}

// FetchPage loads url in a fresh tab of browser. A page whose content never
// appears is still captured; only navigation and runtime errors fail it.
func (f *PageFetcher) FetchPage(browser Browser, url string, pageNumber int) (result models.PageFetchResult) {
	log := utils.Component("fetcher").With().Int("page", pageNumber).Logger()
	result = models.PageFetchResult{PageNumber: pageNumber}

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewFetch(pageNumber, url, "renderer panicked", fmt.Errorf("%v", r))
			log.Error().Err(err).Msg("Page failed")
			result = models.PageFetchResult{PageNumber: pageNumber}
		}
	}()

	page, err := browser.NewPage()
	if err != nil {
		log.Error().Err(apperrors.NewFetch(pageNumber, url, "could not open page", err)).Msg("Page failed")
		return result
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		log.Error().Err(apperrors.NewFetch(pageNumber, url, "navigation failed", err)).Msg("Page failed")
		return result
	}

	policy := utils.RetryPolicy{
		MaxRetries: f.MaxRetries,
		Backoff:    f.RetryBackoff,
		Sleep:      f.sleep,
		Retryable: func(err error) bool {
			return apperrors.IsType(err, apperrors.ErrorTypeFetchTimeout)
		},
	}
	err = policy.Do(func() error {
		found, err := page.WaitForSelector(f.ContentSelector, f.ContentTimeout)
		if err != nil {
			return apperrors.NewFetch(pageNumber, url, "waiting for content failed", err)
		}
		if !found {
			return apperrors.NewFetchTimeout(pageNumber, url)
		}
		return nil
	})
	switch {
	case err == nil:
		if n, err := page.CountMatches(f.ContentSelector); err == nil {
			log.Debug().Int("matches", n).Msg("Listing content ready")
		}
	case apperrors.IsType(err, apperrors.ErrorTypeFetchTimeout):
		log.Warn().Str("selector", f.ContentSelector).Int("attempts", f.MaxRetries+1).
			Msg("Listing content did not appear, saving page anyway")
	default:
		log.Error().Err(err).Msg("Page failed")
		return result
	}

	html, err := page.Content()
	if err != nil {
		log.Error().Err(apperrors.NewFetch(pageNumber, url, "could not read content", err)).Msg("Page failed")
		return result
	}

	result.Succeeded = true
	result.RawHTML = &html
	return result
}

// FetchAllPages fetches urls in order, page number i+1 for urls[i], saving
// every successful page to store. Failures are recorded, never returned.
func (f *PageFetcher) FetchAllPages(ctx context.Context, urls []string, store PageWriter) models.ScrapeSummary {
	log := utils.Component("fetcher")
	summary := models.ScrapeSummary{FailedPages: []int{}}
	if len(urls) == 0 {
		return summary
	}

	browser, err := f.Launcher.Launch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not launch browser, every page failed")
		for i := range urls {
			summary.Record(models.PageFetchResult{PageNumber: i + 1})
		}
		return summary
	}
	defer browser.Close()

	for i, url := range urls {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(urls)-i).Msg("Run cancelled, stopping")
			break
		}

		pageNumber := i + 1
		log.Info().Int("page", pageNumber).Int("total", len(urls)).Msg("Scraping page")
		result := f.FetchPage(browser, url, pageNumber)

		if result.Succeeded && store != nil {
			if err := store.SavePage(pageNumber, *result.RawHTML); err != nil {
				log.Error().Err(err).Int("page", pageNumber).Msg("Could not save page")
				result.Succeeded = false
			}
		}
		summary.Record(result)

		if result.Succeeded && pageNumber < len(urls) {
			f.sleep(utils.RandomDuration(f.Rand, f.MinDelay, f.MaxDelay))
		}
	}

	utils.Success("Pages scraped: %d | Failed: %d", summary.Successful, summary.Failed)
	return summary
}
