package services

import (
	"bostad-scraper/models"
	"bostad-scraper/storage"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ReportStore is the read side of the listing sink.
type ReportStore interface {
	Count(ctx context.Context) (int, error)
	Sample(ctx context.Context, limit int) ([]models.Listing, error)
	NullCounts(ctx context.Context) (storage.NullCounts, error)
	LocationPrices(ctx context.Context) ([]storage.LocationPrice, error)
	PriceStatsByType(ctx context.Context) ([]storage.TypeStats, error)
	TopByPrice(ctx context.Context, limit int) ([]models.Listing, error)
	TopByPricePerSqm(ctx context.Context, limit int) ([]models.Listing, error)
}

// MinListingsPerLocation is the smallest group shown in the location table.
const MinListingsPerLocation = 5

type LocationAverage struct {
	Location string
	AvgPrice float64
	Listings int
}

type Report struct {
	TotalListings  int
	Sample         []models.Listing
	Missing        storage.NullCounts
	ByLocation     []LocationAverage
	ByPropertyType []storage.TypeStats
	MostExpensive  []models.Listing
	BestValue      []models.Listing
}

type Reporter struct {
	Store      ReportStore
	Normalizer *LocationNormalizer
	Limit      int
}

// Generate runs every report query against the store.
func (r *Reporter) Generate(ctx context.Context) (Report, error) {
	var (
		report Report
		err    error
	)

	if report.TotalListings, err = r.Store.Count(ctx); err != nil {
		return Report{}, err
	}
	if report.Sample, err = r.Store.Sample(ctx, 5); err != nil {
		return Report{}, err
	}
	if report.Missing, err = r.Store.NullCounts(ctx); err != nil {
		return Report{}, err
	}

	prices, err := r.Store.LocationPrices(ctx)
	if err != nil {
		return Report{}, err
	}
	normalizer := r.Normalizer
	if normalizer == nil {
		normalizer = NewLocationNormalizer(nil)
	}
	report.ByLocation = AveragePriceByLocation(prices, normalizer.Normalize, MinListingsPerLocation)

	if report.ByPropertyType, err = r.Store.PriceStatsByType(ctx); err != nil {
		return Report{}, err
	}
	if report.MostExpensive, err = r.Store.TopByPrice(ctx, r.Limit); err != nil {
		return Report{}, err
	}
	if report.BestValue, err = r.Store.TopByPricePerSqm(ctx, r.Limit); err != nil {
		return Report{}, err
	}

	return report, nil
}

// AveragePriceByLocation groups rows by normalized location and keeps the
// groups with at least minListings rows, most expensive first. Unpriced
// rows count towards the group size but not the average.
func AveragePriceByLocation(rows []storage.LocationPrice, normalize func(string) string, minListings int) []LocationAverage {
	type group struct {
		sum    int
		priced int
		total  int
	}
	groups := make(map[string]*group)

	for _, row := range rows {
		key := normalize(row.Location)
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.total++
		if row.Price != nil {
			g.sum += *row.Price
			g.priced++
		}
	}

	out := make([]LocationAverage, 0, len(groups))
	for location, g := range groups {
		if g.total < minListings || g.priced == 0 {
			continue
		}
		avg := float64(g.sum) / float64(g.priced)
		out = append(out, LocationAverage{
			Location: location,
			AvgPrice: math.Round(avg*100) / 100,
			Listings: g.total,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPrice == out[j].AvgPrice {
			return out[i].Location < out[j].Location
		}
		return out[i].AvgPrice > out[j].AvgPrice
	})
	return out
}

func PrintReport(report Report) {
	WriteReport(os.Stdout, report)
}

func WriteReport(w io.Writer, report Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(w, "│                  Blocket Bostad Rental Market                │")
	fmt.Fprintln(w, "├───────────────────────────────┬──────────────────────────────┤")
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Total Listings", report.TotalListings)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Missing Location", report.Missing.Location)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Missing Price", report.Missing.Price)
	fmt.Fprintln(w, "└───────────────────────────────┴──────────────────────────────┘")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample Listings")
	writeListingTable(w, report.Sample)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌──────────────────────────────┬─────────────────┬──────────┐")
	fmt.Fprintln(w, "│ Location                     │ Avg Price       │ Listings │")
	fmt.Fprintln(w, "├──────────────────────────────┼─────────────────┼──────────┤")
	for _, l := range report.ByLocation {
		fmt.Fprintf(w, "│ %-28s │ %-15s │ %-8d │\n", truncateText(l.Location, 28), formatSEKFloat(&l.AvgPrice), l.Listings)
	}
	fmt.Fprintln(w, "└──────────────────────────────┴─────────────────┴──────────┘")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌─────────────────┬─────────────┬─────────────────┬─────────────┬──────────┐")
	fmt.Fprintln(w, "│ Property Type   │ Min Price   │ Avg Price       │ Max Price   │ Listings │")
	fmt.Fprintln(w, "├─────────────────┼─────────────┼─────────────────┼─────────────┼──────────┤")
	for _, s := range report.ByPropertyType {
		fmt.Fprintf(w, "│ %-15s │ %-11s │ %-15s │ %-11s │ %-8d │\n",
			truncateText(s.PropertyType, 15), formatSEK(s.Min), formatSEKFloat(s.Avg), formatSEK(s.Max), s.Listings)
	}
	fmt.Fprintln(w, "└─────────────────┴─────────────┴─────────────────┴─────────────┴──────────┘")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Most Expensive Listings")
	writeListingTable(w, report.MostExpensive)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Lowest Price per m²")
	writeListingTable(w, report.BestValue)
}

func writeListingTable(w io.Writer, listings []models.Listing) {
	fmt.Fprintln(w, "┌─────┬──────────────────────┬──────────────────────────┬──────────┬─────────────┐")
	fmt.Fprintln(w, "│ #   │ Location             │ Address                  │ Size m²  │ Price       │")
	fmt.Fprintln(w, "├─────┼──────────────────────┼──────────────────────────┼──────────┼─────────────┤")
	for i, l := range listings {
		size := "-"
		if l.SizeSqm != nil {
			size = strconv.Itoa(*l.SizeSqm)
		}
		fmt.Fprintf(w, "│ %-3d │ %-20s │ %-24s │ %-8s │ %-11s │\n",
			i+1, truncateText(l.Location, 20), truncateText(l.Address, 24), size, formatSEK(l.Price))
	}
	fmt.Fprintln(w, "└─────┴──────────────────────┴──────────────────────────┴──────────┴─────────────┘")
	for i, l := range listings {
		if l.URL != "" {
			fmt.Fprintf(w, "  %d. %s\n", i+1, l.URL)
		}
	}
}

// formatSEK renders 12000 as "SEK 12 000".
func formatSEK(v *int) string {
	if v == nil {
		return "-"
	}
	return "SEK " + groupThousands(strconv.Itoa(*v))
}

func formatSEKFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(*v, 'f', 2, 64), ".")
	return "SEK " + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// truncateText shortens s to at most max runes.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
