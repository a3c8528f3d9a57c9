package blocket

import (
	apperrors "bostad-scraper/pkg/errors"
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexURL = "https://bostad.example.se/find-home/?page=1"

const paginationHTML = `<html><body>
	<nav>
		<a class="qds-nyr6q5" href="/find-home/?page=1">1</a>
		<a class="qds-nyr6q5" href="/find-home/?page=2">2</a>
		<a class="qds-nyr6q5" href="/find-home/?page=3">3</a>
		<a class="qds-nyr6q5" href="/find-home/?page=7"> 7 </a>
		<a class="qds-nyr6q5" href="/find-home/?page=4">4</a>
		<a class="qds-nyr6q5" href="/find-home/?page=2">Nästa</a>
	</nav>
	<a href="/help">99</a>
</body></html>`

func TestLastPageFromHTML(t *testing.T) {
	last, ok := LastPageFromHTML(paginationHTML, "page")
	assert.True(t, ok)
	assert.Equal(t, 7, last)

	_, ok = LastPageFromHTML(`<a href="/help">12</a><a href="/x?page=2">next</a>`, "page")
	assert.False(t, ok)

	_, ok = LastPageFromHTML("", "page")
	assert.False(t, ok)
}

func TestGeneratePageURLs(t *testing.T) {
	base := "https://bostad.example.se/find-home/?page=1&rooms=1&size=10"

	for lastPage := 1; lastPage <= 12; lastPage++ {
		urls, err := GeneratePageURLs(base, "page", lastPage)
		require.NoError(t, err)
		require.Len(t, urls, lastPage)

		for i, u := range urls {
			expected := fmt.Sprintf("https://bostad.example.se/find-home/?page=%d&rooms=1&size=10", i+1)
			assert.Equal(t, expected, u)

			parsed, err := url.Parse(u)
			require.NoError(t, err)
			assert.Equal(t, "1", parsed.Query().Get("rooms"))
			assert.Equal(t, "10", parsed.Query().Get("size"))
		}
	}
}

func TestGeneratePageURLsEdgeCases(t *testing.T) {
	urls, err := GeneratePageURLs("https://example.se/list?sort=new", "page", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.se/list?sort=new&page=1",
		"https://example.se/list?sort=new&page=2",
	}, urls)

	urls, err = GeneratePageURLs("https://example.se/list", "page", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.se/list?page=1"}, urls)

	urls, err = GeneratePageURLs("https://example.se/list?mypage=1&page=1", "page", 2)
	require.NoError(t, err)
	assert.Equal(t, "https://example.se/list?mypage=1&page=2", urls[1])

	urls, err = GeneratePageURLs("https://example.se/list?page=1", "page", 0)
	require.NoError(t, err)
	assert.Empty(t, urls)

	_, err = GeneratePageURLs("://missing-scheme", "page", 3)
	assert.Error(t, err)
}

func newTestPaginator(browser *fakeBrowser) *Paginator {
	return &Paginator{
		Launcher:  &fakeLauncher{browser: browser},
		Selector:  "a.qds-nyr6q5",
		Timeout:   10 * time.Second,
		PageParam: "page",
	}
}

func TestDiscoverLastPage(t *testing.T) {
	browser := newFakeBrowser(map[string]pageScript{
		indexURL: {html: paginationHTML, found: true},
	})

	last, err := newTestPaginator(browser).DiscoverLastPage(context.Background(), indexURL)
	require.NoError(t, err)
	assert.Equal(t, 7, last)
	assert.Equal(t, 1, browser.opened)
	assert.Equal(t, 1, browser.closedPages)
	assert.Equal(t, 1, browser.closed)
}

func TestDiscoverLastPageParsesAfterTimeout(t *testing.T) {
	browser := newFakeBrowser(map[string]pageScript{
		indexURL: {html: paginationHTML, found: false},
	})

	last, err := newTestPaginator(browser).DiscoverLastPage(context.Background(), indexURL)
	require.NoError(t, err)
	assert.Equal(t, 7, last)
}

func TestDiscoverLastPageFailures(t *testing.T) {
	testCases := map[string]pageScript{
		"no page numbers": {html: "<html><body>Inga träffar</body></html>", found: false},
		"navigation":      {navigateErr: errBoom},
		"content":         {found: true, contentErr: errBoom},
	}

	for name, script := range testCases {
		t.Run(name, func(t *testing.T) {
			browser := newFakeBrowser(map[string]pageScript{indexURL: script})

			last, err := newTestPaginator(browser).DiscoverLastPage(context.Background(), indexURL)
			assert.Equal(t, 0, last)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePagination))
			assert.Equal(t, 1, browser.closed)
		})
	}
}

func TestDiscoverLastPageLaunchFailure(t *testing.T) {
	p := &Paginator{Launcher: &fakeLauncher{err: errBoom}, PageParam: "page"}

	_, err := p.DiscoverLastPage(context.Background(), indexURL)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePagination))
	assert.ErrorIs(t, err, errBoom)
}
