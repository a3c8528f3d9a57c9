package services

import (
	"bostad-scraper/models"
	"bostad-scraper/parser"
	"bostad-scraper/utils"
	"context"
)

type RawPageReader interface {
	ListPages() ([]int, error)
	ReadPage(pageNumber int) (string, error)
}

type ProcessedPageWriter interface {
	WritePage(pageNumber int, listings []models.Listing) error
}

type ProcessedPageReader interface {
	ListPages() ([]int, error)
	ReadPage(pageNumber int) ([]models.Listing, error)
}

type ListingSink interface {
	InsertListings(ctx context.Context, listings []models.Listing) ([]models.Listing, error)
}

// Processor turns every stored raw page into a processed listings page.
type Processor struct {
	Raw       RawPageReader
	Processed ProcessedPageWriter
	Extractor *parser.Extractor
}

type ProcessSummary struct {
	Pages    int
	Failed   int
	Listings int
}

// Run processes pages in ascending page order. A page that cannot be read
// or written is logged and counted as failed.
func (p *Processor) Run() (ProcessSummary, error) {
	log := utils.Component("processor")
	var summary ProcessSummary

	pages, err := p.Raw.ListPages()
	if err != nil {
		return summary, err
	}
	if len(pages) == 0 {
		log.Warn().Msg("No raw pages to process")
		return summary, nil
	}

	for _, n := range pages {
		html, err := p.Raw.ReadPage(n)
		if err != nil {
			log.Error().Err(err).Int("page", n).Msg("Could not read raw page")
			summary.Failed++
			continue
		}

		listings := p.Extractor.ExtractListings(html)
		if err := p.Processed.WritePage(n, listings); err != nil {
			log.Error().Err(err).Int("page", n).Msg("Could not write processed page")
			summary.Failed++
			continue
		}

		log.Debug().Int("page", n).Int("listings", len(listings)).Msg("Page processed")
		summary.Pages++
		summary.Listings += len(listings)
	}

	utils.Success("Processed %d pages | %d listings | %d failed", summary.Pages, summary.Listings, summary.Failed)
	return summary, nil
}

// Loader moves processed pages into the sink and announces new listings.
type Loader struct {
	Pages ProcessedPageReader
	Sink  ListingSink

	// Publisher is optional.
	Publisher Publisher
}

type LoadSummary struct {
	Pages     int
	Invalid   int
	Failed    int
	Listings  int
	Inserted  int
	Skipped   int
	Published int
}

// Run loads one page per batch. Pages failing schema validation or the
// insert are logged and counted; only a cancelled ctx stops the run early.
// Publish failures are only logged.
func (l *Loader) Run(ctx context.Context) (LoadSummary, error) {
	log := utils.Component("loader")
	var summary LoadSummary

	pages, err := l.Pages.ListPages()
	if err != nil {
		return summary, err
	}

	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		listings, err := l.Pages.ReadPage(n)
		if err != nil {
			log.Warn().Err(err).Int("page", n).Msg("Skipping processed page")
			summary.Invalid++
			continue
		}

		inserted, err := l.Sink.InsertListings(ctx, listings)
		if err != nil {
			log.Error().Err(err).Int("page", n).Msg("Could not load page")
			summary.Failed++
			continue
		}
		summary.Pages++
		summary.Listings += len(listings)
		summary.Inserted += len(inserted)
		summary.Skipped += len(listings) - len(inserted)

		if l.Publisher == nil {
			continue
		}
		for _, listing := range inserted {
			if err := l.Publisher.PublishListing(ctx, listing); err != nil {
				log.Warn().Err(err).Str("url", listing.URL).Msg("Could not publish listing")
				continue
			}
			summary.Published++
		}
	}

	utils.Success("Loaded %d pages | %d new listings | %d already stored | %d failed",
		summary.Pages, summary.Inserted, summary.Skipped, summary.Failed)
	return summary, nil
}
