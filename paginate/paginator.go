package paginate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/s0up4200/osuapi/decode"
	"github.com/s0up4200/osuapi/transport"
)

// Done is returned by Iterator.Next once the last page was consumed.
var Done = errors.New("no more pages")

// Fetcher performs one request. *transport.Transport satisfies it.
type Fetcher interface {
	Send(ctx context.Context, spec transport.RequestSpec) (json.RawMessage, error)
}

// Page is one page of results. A nil Cursor marks the last page.
type Page[T any] struct {
	Items  []T
	Cursor *string
	Total  *int
}

// Option configures a Paginator.
type Option func(*settings)

type settings struct {
	maxPages int
}

// WithMaxPages stops iteration after n pages, even if the API reports more.
func WithMaxPages(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// Paginator describes a paged endpoint. It holds no iteration state, so one
// Paginator may be iterated any number of times, each from the first page.
type Paginator[T any] struct {
	fetcher  Fetcher
	first    transport.RequestSpec
	next     func(cursor string) transport.RequestSpec
	extract  Extractor
	each     func(*T)
	settings settings
}

// New describes the endpoint whose first page is requested with first and
// every later page with next(cursor). Items are decoded into T.
func New[T any](fetcher Fetcher, first transport.RequestSpec, next func(cursor string) transport.RequestSpec, extract Extractor, opts ...Option) *Paginator[T] {
	p := &Paginator[T]{
		fetcher: fetcher,
		first:   first,
		next:    next,
		extract: extract,
	}
	for _, opt := range opts {
		opt(&p.settings)
	}
	return p
}

// Param builds a next function that sets the cursor as query parameter name
// on top of first.
func Param(first transport.RequestSpec, name string) func(string) transport.RequestSpec {
	return func(cursor string) transport.RequestSpec {
		return first.WithQuery(name, cursor)
	}
}

// Each returns a copy of p that calls fn on every decoded item before the
// page is handed out.
func (p *Paginator[T]) Each(fn func(*T)) *Paginator[T] {
	cp := *p
	cp.each = fn
	return &cp
}

// Iter starts a new iteration at the first page.
func (p *Paginator[T]) Iter() *Iterator[T] {
	return &Iterator[T]{p: p, spec: p.first}
}

// Pages yields pages in order. Iteration stops after the last page or at
// the first error, which is yielded with a zero Page.
func (p *Paginator[T]) Pages(ctx context.Context) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		it := p.Iter()
		for {
			page, err := it.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

// Items yields every item of every page in order.
func (p *Paginator[T]) Items(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range p.Pages(ctx) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Collect gathers all items. On failure the items of the pages fetched
// before the error are returned alongside it.
func (p *Paginator[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T
	for page, err := range p.Pages(ctx) {
		if err != nil {
			return all, err
		}
		all = append(all, page.Items...)
	}
	return all, nil
}

// Iterator is one pass over a Paginator. Not safe for concurrent use.
type Iterator[T any] struct {
	p     *Paginator[T]
	spec  transport.RequestSpec
	pages int
	done  bool
}

// Next fetches the next page, or returns Done. A failed fetch leaves the
// iterator where it was, so calling Next again retries the same page.
func (it *Iterator[T]) Next(ctx context.Context) (Page[T], error) {
	if it.done {
		return Page[T]{}, Done
	}
	if limit := it.p.settings.maxPages; limit > 0 && it.pages >= limit {
		it.done = true
		return Page[T]{}, Done
	}

	raw, err := it.p.fetcher.Send(ctx, it.spec)
	if err != nil {
		return Page[T]{}, err
	}

	rawPage, err := it.p.extract(raw, it.spec)
	if err != nil {
		return Page[T]{}, fmt.Errorf("page %d of %s: %w", it.pages+1, it.p.first.Path, err)
	}

	page := Page[T]{
		Items:  make([]T, len(rawPage.Items)),
		Cursor: rawPage.Cursor,
		Total:  rawPage.Total,
	}
	for i, item := range rawPage.Items {
		if err := decode.Into(item, &page.Items[i]); err != nil {
			return Page[T]{}, fmt.Errorf("page %d of %s, item %d: %w", it.pages+1, it.p.first.Path, i, err)
		}
		if it.p.each != nil {
			it.p.each(&page.Items[i])
		}
	}

	it.pages++
	if page.Cursor == nil {
		it.done = true
	} else {
		it.spec = it.p.next(*page.Cursor)
	}
	return page, nil
}

// Pages reports how many pages this iterator has returned.
func (it *Iterator[T]) Pages() int {
	return it.pages
}
