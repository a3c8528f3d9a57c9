package storage

import (
	"bostad-scraper/models"
	apperrors "bostad-scraper/pkg/errors"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/listings.json
var listingsSchemaJSON []byte

var listingsSchema = mustCompileListingsSchema()

func mustCompileListingsSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("listings.json", bytes.NewReader(listingsSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add listings schema: %v", err))
	}
	schema, err := compiler.Compile("listings.json")
	if err != nil {
		panic(fmt.Sprintf("compile listings schema: %v", err))
	}
	return schema
}

// ValidateListingsJSON checks body against the processed page schema.
func ValidateListingsJSON(body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if err := listingsSchema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// JSONStore keeps the extracted listings of each page as a JSON array
// under <dir>/<site>/page<N>.json.
type JSONStore struct {
	dir string
}

func NewJSONStore(processedDir, site string) *JSONStore {
	return &JSONStore{dir: filepath.Join(processedDir, site)}
}

func (s *JSONStore) Dir() string {
	return s.dir
}

func (s *JSONStore) path(pageNumber int) string {
	return filepath.Join(s.dir, pageFileName(pageNumber, "json"))
}

// WritePage writes listings pretty-printed, with HTML characters left
// unescaped so URLs and Swedish text stay readable.
func (s *JSONStore) WritePage(pageNumber int, listings []models.Listing) error {
	if listings == nil {
		listings = []models.Listing{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		return apperrors.NewStorage(fmt.Sprintf("encode page %d", pageNumber), err)
	}

	if err := writeFile(s.path(pageNumber), buf.Bytes()); err != nil {
		return apperrors.NewStorage(fmt.Sprintf("write processed page %d", pageNumber), err)
	}
	return nil
}

// ReadPage loads one page and rejects it if it does not match the schema.
func (s *JSONStore) ReadPage(pageNumber int) ([]models.Listing, error) {
	body, err := os.ReadFile(s.path(pageNumber))
	if err != nil {
		return nil, apperrors.NewStorage(fmt.Sprintf("read processed page %d", pageNumber), err)
	}
	if err := ValidateListingsJSON(body); err != nil {
		return nil, apperrors.NewStorage(fmt.Sprintf("processed page %d", pageNumber), err)
	}

	var listings []models.Listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, apperrors.NewStorage(fmt.Sprintf("decode processed page %d", pageNumber), err)
	}
	return listings, nil
}

func (s *JSONStore) ListPages() ([]int, error) {
	pages, err := listPageFiles(s.dir, "json")
	if err != nil {
		return nil, apperrors.NewStorage("list processed pages", err)
	}
	return pages, nil
}
