package storage

import (
	"bostad-scraper/models"
	apperrors "bostad-scraper/pkg/errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawStoreSaveAndList(t *testing.T) {
	store := NewRawStore(t.TempDir(), "blocket")

	pages, err := store.ListPages()
	require.NoError(t, err)
	assert.Empty(t, pages, "missing directory holds no pages")

	for _, n := range []int{10, 2, 1, 9} {
		require.NoError(t, store.SavePage(n, "<html>first</html>"))
	}
	require.NoError(t, store.SavePage(2, "<html>second</html>"))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "page3.json"), []byte("[]"), 0644))

	pages, err = store.ListPages()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 9, 10}, pages)

	html, err := store.ReadPage(2)
	require.NoError(t, err)
	assert.Equal(t, "<html>second</html>", html, "saving again overwrites")

	assert.FileExists(t, filepath.Join(store.Dir(), "page10.html"))
}

func TestRawStoreReadMissingPage(t *testing.T) {
	store := NewRawStore(t.TempDir(), "blocket")

	_, err := store.ReadPage(4)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestJSONStoreRoundTrip(t *testing.T) {
	store := NewJSONStore(t.TempDir(), "blocket")
	listings := []models.Listing{
		{
			Location:      "Spånga",
			Address:       "Storgatan 1",
			PropertyType:  "Lägenhet",
			SizeSqm:       models.IntPtr(54),
			Price:         models.IntPtr(12000),
			AvailableFrom: "1 nov",
			URL:           "https://bostad.blocket.se/p2/sv/home/1?a=1&b=2",
		},
		{Address: "Okänd", URL: "https://bostad.blocket.se/p2/sv/home/2"},
	}

	require.NoError(t, store.WritePage(3, listings))

	raw, err := os.ReadFile(filepath.Join(store.Dir(), "page3.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Spånga")
	assert.Contains(t, string(raw), "?a=1&b=2", "HTML characters are not escaped")
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "output is indented")

	got, err := store.ReadPage(3)
	require.NoError(t, err)
	assert.Equal(t, listings, got)

	pages, err := store.ListPages()
	require.NoError(t, err)
	assert.Equal(t, []int{3}, pages)
}

func TestJSONStoreWritesEmptyArray(t *testing.T) {
	store := NewJSONStore(t.TempDir(), "blocket")

	require.NoError(t, store.WritePage(1, nil))
	got, err := store.ReadPage(1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONStoreRejectsInvalidPage(t *testing.T) {
	store := NewJSONStore(t.TempDir(), "blocket")
	require.NoError(t, os.MkdirAll(store.Dir(), 0755))

	bad := `[{"location": "Kista", "price": "cheap"}]`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "page1.json"), []byte(bad), 0644))

	_, err := store.ReadPage(1)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestValidateListingsJSON(t *testing.T) {
	valid := `[{"location":"Kista","address":"Kistagången 4","property_type":"Rum",
		"size_kvm":null,"price":5400,"available":"","until":"","url":"https://x/1"}]`

	testCases := map[string]struct {
		body    string
		wantErr bool
	}{
		"valid page":       {body: valid, wantErr: false},
		"large price":      {body: strings.Replace(valid, "5400", "2500000000", 1), wantErr: false},
		"empty page":       {body: `[]`, wantErr: false},
		"not json":         {body: `<html>`, wantErr: true},
		"object not array": {body: `{"location":"Kista"}`, wantErr: true},
		"missing url":      {body: `[{"location":"","address":"","property_type":"","size_kvm":null,"price":null,"available":"","until":""}]`, wantErr: true},
		"negative price":   {body: strings.Replace(valid, "5400", "-1", 1), wantErr: true},
		"fractional price": {body: strings.Replace(valid, "5400", "54.5", 1), wantErr: true},
		"unknown field":    {body: strings.Replace(valid, `"until":""`, `"until":"","rooms":2`, 1), wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := ValidateListingsJSON([]byte(tc.body))
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
