package main

import (
	"bostad-scraper/config"
	"bostad-scraper/models"
	"bostad-scraper/parser"
	apperrors "bostad-scraper/pkg/errors"
	"bostad-scraper/scraper/blocket"
	"bostad-scraper/services"
	"bostad-scraper/storage"
	"bostad-scraper/utils"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	skipScrape := flag.Bool("skip-scrape", false, "reuse the raw pages already on disk")
	skipLoad := flag.Bool("skip-load", false, "stop after writing processed JSON")
	skipReport := flag.Bool("skip-report", false, "do not print the market report")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		utils.Debug("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Error("Could not load configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	utils.Info("Scraper starting | site=%s retries=%d delay=%v-%v",
		cfg.Site, cfg.MaxRetries, cfg.MinDelay, cfg.MaxDelay)

	raw := storage.NewRawStore(cfg.RawDir, cfg.Site)
	processed := storage.NewJSONStore(cfg.ProcessedDir, cfg.Site)

	if !*skipScrape {
		summary, err := blocket.NewChromeScraper(cfg, raw).RunFullScrape(ctx)
		if err != nil {
			printFailure(err)
		} else {
			printSummary(summary)
		}
	}

	utils.Section("Processing")
	extractor, err := parser.NewExtractor(cfg.Locators)
	if err != nil {
		utils.Error("Invalid listing locators: %v", err)
	} else {
		processor := &services.Processor{Raw: raw, Processed: processed, Extractor: extractor}
		if _, err := processor.Run(); err != nil {
			utils.Error("Processing failed: %v", err)
		}
	}

	if *skipLoad {
		return
	}

	utils.Section("Loading")
	sink, err := storage.NewPostgresSink(ctx, cfg.DSN())
	if err != nil {
		utils.Error("Failed to connect PostgreSQL: %v", err)
		stop()
		os.Exit(1)
	}
	defer sink.Close()

	if err := sink.EnsureSchema(ctx); err != nil {
		utils.Error("Failed to ensure PostgreSQL schema: %v", err)
		return
	}

	loader := &services.Loader{Pages: processed, Sink: sink}
	if publisher := newPublisher(ctx, cfg); publisher != nil {
		defer publisher.Close()
		loader.Publisher = publisher
	}
	if _, err := loader.Run(ctx); err != nil {
		utils.Error("Loading failed: %v", err)
	}

	count, err := sink.Count(ctx)
	if err != nil {
		utils.Error("Could not count listings: %v", err)
	} else {
		fmt.Printf("Total records in database: %d\n", count)
	}

	if *skipReport {
		return
	}

	reporter := &services.Reporter{
		Store:      sink,
		Normalizer: services.NewLocationNormalizer(cfg.KnownAreas),
		Limit:      cfg.ReportLimit,
	}
	report, err := reporter.Generate(ctx)
	if err != nil {
		utils.Error("Could not build report: %v", err)
		return
	}
	services.PrintReport(report)
}

// newPublisher returns nil when no Redis address is configured or Redis
// does not answer.
func newPublisher(ctx context.Context, cfg *config.Config) *services.RedisPublisher {
	if cfg.RedisAddr == "" {
		return nil
	}
	publisher := services.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen)
	if err := publisher.Ping(ctx); err != nil {
		utils.Warn("Redis at %s unavailable, new listings will not be published: %v", cfg.RedisAddr, err)
		publisher.Close()
		return nil
	}
	utils.Info("Publishing new listings to stream %s", cfg.RedisStream)
	return publisher
}

func printSummary(summary models.ScrapeSummary) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║                SCRAPE COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Successfully scraped : %-21d║\n", summary.Successful)
	fmt.Printf("║  Failed               : %-21d║\n", summary.Failed)
	fmt.Println("╚══════════════════════════════════════════════╝")
	if len(summary.FailedPages) > 0 {
		pages := make([]string, len(summary.FailedPages))
		for i, n := range summary.FailedPages {
			pages[i] = fmt.Sprint(n)
		}
		fmt.Printf("Failed page numbers: %s\n", strings.Join(pages, ", "))
	}
	fmt.Println()
}

func printFailure(err error) {
	reason := err.Error()
	var se *apperrors.ScrapeError
	if errors.As(err, &se) {
		reason = se.Reason()
	}
	utils.Error("Scraping failed: %v", err)
	fmt.Printf("Scraping failed: %s\n", reason)
}
