package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var pageFilePattern = regexp.MustCompile(`^page(\d+)\.([a-z]+)$`)

func pageFileName(pageNumber int, ext string) string {
	return fmt.Sprintf("page%d.%s", pageNumber, ext)
}

// listPageFiles returns the page numbers of every page<N>.<ext> file in dir,
// ascending. A missing dir holds no pages.
func listPageFiles(dir, ext string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, err
	}

	pages := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(entry.Name())
		if m == nil || m[2] != ext {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
