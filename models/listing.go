package models

// Listing is one parsed property listing. URL is the natural key.
type Listing struct {
	Location       string `json:"location"`
	Address        string `json:"address"`
	PropertyType   string `json:"property_type"`
	SizeSqm        *int   `json:"size_kvm"`
	Price          *int   `json:"price"`
	AvailableFrom  string `json:"available"`
	AvailableUntil string `json:"until"`
	URL            string `json:"url"`
}

// PageFetchResult is the outcome of fetching one listing page.
type PageFetchResult struct {
	PageNumber int
	Succeeded  bool
	RawHTML    *string
}

// ScrapeSummary aggregates the page results of one run.
type ScrapeSummary struct {
	Successful  int
	Failed      int
	FailedPages []int
}

// Record adds one page result to the summary.
func (s *ScrapeSummary) Record(r PageFetchResult) {
	if r.Succeeded {
		s.Successful++
		return
	}
	s.Failed++
	s.FailedPages = append(s.FailedPages, r.PageNumber)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
