// Package pagertest provides an in-memory pager.Fetcher for tests.
package pagertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/pager"
)

// Fetcher serves fixed pages per resource and records every call.
type Fetcher struct {
	mu        sync.Mutex
	resources map[string][][]json.RawMessage
	failures  map[string]error
	calls     []Call
}

// Call is one FetchPage invocation.
type Call struct {
	Resource string
	Page     int
}

// New returns an empty Fetcher.
func New() *Fetcher {
	return &Fetcher{
		resources: make(map[string][][]json.RawMessage),
		failures:  make(map[string]error),
	}
}

// AddPages registers resource with one page per argument. Records are
// marshalled to JSON. It panics on values that cannot be marshalled.
func (f *Fetcher) AddPages(resource string, pages ...[]any) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, page := range pages {
		raw := make([]json.RawMessage, 0, len(page))
		for _, rec := range page {
			b, err := json.Marshal(rec)
			if err != nil {
				panic(err)
			}
			raw = append(raw, b)
		}
		f.resources[resource] = append(f.resources[resource], raw)
	}
	if _, ok := f.resources[resource]; !ok {
		f.resources[resource] = nil
	}
	return f
}

// FailPage makes FetchPage return err for resource/page.
func (f *Fetcher) FailPage(resource string, page int, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[fmt.Sprintf("%s#%d", resource, page)] = err
	return f
}

// Calls returns the recorded calls in order.
func (f *Fetcher) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the pages requested for resource, in order.
func (f *Fetcher) CallsFor(resource string) []int {
	var pages []int
	for _, c := range f.Calls() {
		if c.Resource == resource {
			pages = append(pages, c.Page)
		}
	}
	return pages
}

// FetchPage implements pager.Fetcher.
func (f *Fetcher) FetchPage(ctx context.Context, resource string, page int) (*pager.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Resource: resource, Page: page})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.failures[fmt.Sprintf("%s#%d", resource, page)]; err != nil {
		return nil, err
	}
	pages, ok := f.resources[resource]
	if !ok {
		return nil, fmt.Errorf("pagertest: unknown resource %s", resource)
	}
	out := &pager.Page{TotalPages: len(pages)}
	if page < len(pages) {
		out.Records = pages[page]
	}
	return out, nil
}
