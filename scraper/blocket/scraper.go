package blocket

import (
	"bostad-scraper/config"
	"bostad-scraper/models"
	"bostad-scraper/utils"
	"context"
	"fmt"
)

// Scraper drives one full scrape: discover pages, build their URLs, fetch
// and store each one.
type Scraper struct {
	cfg       *config.Config
	paginator *Paginator
	fetcher   *PageFetcher
	store     PageWriter
}

// NewScraper wires a Paginator and PageFetcher from cfg around launcher.
func NewScraper(cfg *config.Config, launcher Launcher, store PageWriter) *Scraper {
	return &Scraper{
		cfg: cfg,
		paginator: &Paginator{
			Launcher:  launcher,
			Selector:  cfg.PaginationSelector,
			Timeout:   cfg.PaginationTimeout,
			PageParam: cfg.PageParam,
		},
		fetcher: &PageFetcher{
			Launcher:        launcher,
			ContentSelector: cfg.ContentSelector,
			ContentTimeout:  cfg.ContentTimeout,
			MaxRetries:      cfg.MaxRetries,
			RetryBackoff:    cfg.RetryBackoff,
			MinDelay:        cfg.MinDelay,
			MaxDelay:        cfg.MaxDelay,
		},
		store: store,
	}
}

// NewChromeScraper is NewScraper with a headless Chrome launcher.
func NewChromeScraper(cfg *config.Config, store PageWriter) *Scraper {
	return NewScraper(cfg, ChromeLauncher{
		Headless:          cfg.Headless,
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.NavigationTimeout,
	}, store)
}

// RunFullScrape returns an ErrorTypePagination error when the index page
// shows no page numbers. Individual page failures only show up in the
// summary.
func (s *Scraper) RunFullScrape(ctx context.Context) (models.ScrapeSummary, error) {
	utils.Section("Pagination")
	lastPage, err := s.paginator.DiscoverLastPage(ctx, s.cfg.IndexURL)
	if err != nil {
		return models.ScrapeSummary{}, err
	}

	urls, err := GeneratePageURLs(s.cfg.PageURL, s.cfg.PageParam, lastPage)
	if err != nil {
		return models.ScrapeSummary{}, fmt.Errorf("build page urls: %w", err)
	}
	for _, u := range urls {
		utils.Debug("Queued %s", u)
	}

	utils.Section("Fetching pages")
	return s.fetcher.FetchAllPages(ctx, urls, s.store), nil
}
