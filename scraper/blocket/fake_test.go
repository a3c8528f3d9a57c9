package blocket

import (
	"context"
	"errors"
	"sync"
	"time"
)

// pageScript describes how the fake renderer behaves for one URL.
type pageScript struct {
	html            string
	navigateErr     error
	found           bool
	waitErr         error
	contentErr      error
	panicOnNavigate bool
}

type fakeBrowser struct {
	mu          sync.Mutex
	scripts     map[string]pageScript
	newPageErr  error
	waits       map[string]int
	opened      int
	closedPages int
	closed      int
}

func newFakeBrowser(scripts map[string]pageScript) *fakeBrowser {
	return &fakeBrowser{scripts: scripts, waits: make(map[string]int)}
}

func (b *fakeBrowser) NewPage() (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	b.opened++
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
}

type fakePage struct {
	browser *fakeBrowser
	url     string
}

func (p *fakePage) script() pageScript {
	return p.browser.scripts[p.url]
}

func (p *fakePage) Navigate(url string) error {
	p.url = url
	s := p.script()
	if s.panicOnNavigate {
		panic("tab crashed")
	}
	return s.navigateErr
}

func (p *fakePage) WaitForSelector(selector string, timeout time.Duration) (bool, error) {
	p.browser.mu.Lock()
	p.browser.waits[p.url]++
	p.browser.mu.Unlock()

	s := p.script()
	if s.waitErr != nil {
		return false, s.waitErr
	}
	return s.found, nil
}

func (p *fakePage) Content() (string, error) {
	s := p.script()
	if s.contentErr != nil {
		return "", s.contentErr
	}
	return s.html, nil
}

func (p *fakePage) CountMatches(selector string) (int, error) {
	return 0, nil
}

func (p *fakePage) Close() {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	p.browser.closedPages++
}

type fakeLauncher struct {
	browser  *fakeBrowser
	err      error
	launches int
}

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

// memoryPages is an in-memory PageWriter.
type memoryPages struct {
	pages map[int]string
	order []int
	err   error
}

func newMemoryPages() *memoryPages {
	return &memoryPages{pages: make(map[int]string)}
}

func (m *memoryPages) SavePage(pageNumber int, html string) error {
	if m.err != nil {
		return m.err
	}
	m.pages[pageNumber] = html
	m.order = append(m.order, pageNumber)
	return nil
}

// sleepRecorder replaces time.Sleep in tests.
type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

var errBoom = errors.New("boom")
