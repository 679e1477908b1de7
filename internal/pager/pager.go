// Package pager walks paged API collections one page at a time.
package pager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrConsumed is yielded when a Pager is iterated a second time.
var ErrConsumed = errors.New("pager: sequence already consumed")

// Page is one page of a paged resource.
type Page struct {
	Records    []json.RawMessage
	TotalPages int
}

// Fetcher retrieves a single page of a resource. It blocks until the page
// is available or the request fails.
type Fetcher interface {
	FetchPage(ctx context.Context, resource string, page int) (*Page, error)
}

// Pager yields every record of a resource, page by page. It can be iterated
// only once.
type Pager struct {
	fetcher  Fetcher
	resource string
	log      logrus.FieldLogger
	started  atomic.Bool
}

// New returns a Pager over resource. A nil log discards output.
func New(f Fetcher, resource string, log logrus.FieldLogger) *Pager {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Pager{fetcher: f, resource: resource, log: log}
}

// Records returns the lazy record sequence. The total page count is taken
// from page 0 and pages 0..total-1 are each fetched exactly once, in order.
// The first fetch error is yielded and ends the sequence.
func (p *Pager) Records(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		if !p.started.CompareAndSwap(false, true) {
			yield(nil, ErrConsumed)
			return
		}
		total := 1
		for page := 0; page < total; page++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			pg, err := p.fetcher.FetchPage(ctx, p.resource, page)
			if err != nil {
				yield(nil, fmt.Errorf("fetch %s page %d: %w", p.resource, page, err))
				return
			}
			if page == 0 {
				total = pg.TotalPages
				if total <= 0 {
					p.log.WithField("resource", p.resource).Debug("resource reports no pages")
					return
				}
			}
			p.log.WithFields(logrus.Fields{
				"resource": p.resource,
				"page":     page + 1,
				"pages":    total,
				"count":    len(pg.Records),
			}).Debug("fetched page")
			for _, rec := range pg.Records {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// Decode converts a raw record sequence into typed values. A record that
// fails to decode ends the sequence with its error.
func Decode[T any](seq iter.Seq2[json.RawMessage, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for raw, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				yield(zero, fmt.Errorf("decode %T: %w", v, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect drains resource into a slice. On error nothing is returned.
func Collect[T any](ctx context.Context, f Fetcher, resource string, log logrus.FieldLogger) ([]T, error) {
	var out []T
	for v, err := range Decode[T](New(f, resource, log).Records(ctx)) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
