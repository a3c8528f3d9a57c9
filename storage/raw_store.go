package storage

import (
	apperrors "bostad-scraper/pkg/errors"
	"fmt"
	"os"
	"path/filepath"
)

// RawStore keeps one rendered HTML file per page under <dir>/<site>.
// Saving a page that already exists replaces it.
type RawStore struct {
	dir string
}

func NewRawStore(rawDir, site string) *RawStore {
	return &RawStore{dir: filepath.Join(rawDir, site)}
}

func (s *RawStore) Dir() string {
	return s.dir
}

func (s *RawStore) path(pageNumber int) string {
	return filepath.Join(s.dir, pageFileName(pageNumber, "html"))
}

func (s *RawStore) SavePage(pageNumber int, html string) error {
	if err := writeFile(s.path(pageNumber), []byte(html)); err != nil {
		return apperrors.NewStorage(fmt.Sprintf("save raw page %d", pageNumber), err)
	}
	return nil
}

func (s *RawStore) ReadPage(pageNumber int) (string, error) {
	data, err := os.ReadFile(s.path(pageNumber))
	if err != nil {
		return "", apperrors.NewStorage(fmt.Sprintf("read raw page %d", pageNumber), err)
	}
	return string(data), nil
}

// ListPages returns the stored page numbers in numeric order, so page10
// sorts after page9.
func (s *RawStore) ListPages() ([]int, error) {
	pages, err := listPageFiles(s.dir, "html")
	if err != nil {
		return nil, apperrors.NewStorage("list raw pages", err)
	}
	return pages, nil
}
