package events

import (
	"context"
	"fmt"
	"time"

	"cloudeng.io/errors"
	"cloudeng.io/logging/ctxlog"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// Loader is implemented by sources that read their data up front.
type Loader interface {
	Load() error
}

// Collection merges the events of several sources.
type Collection struct {
	sources []Source
	loc     *time.Location
}

// NewCollection returns a collection of sources, consulted in order.
func NewCollection(loc *time.Location, sources ...Source) *Collection {
	if loc == nil {
		loc = time.Local
	}
	return &Collection{sources: sources, loc: loc}
}

// Sources returns the sources of the collection.
func (c *Collection) Sources() []Source {
	return c.sources
}

// Load loads every source that needs it. All failures are reported
// together; sources that loaded fine remain usable.
func (c *Collection) Load() error {
	errs := &errors.M{}
	for _, s := range c.sources {
		if l, ok := s.(Loader); ok {
			if err := l.Load(); err != nil {
				errs.Append(fmt.Errorf("event source %s: %w", s.Name(), err))
			}
		}
	}
	return errs.Err()
}

// Events returns the events of all sources for year and its neighbours,
// sorted by date. Failing sources are logged and skipped.
func (c *Collection) Events(ctx context.Context, year int) []calendar.EventRecord {
	var all []calendar.EventRecord
	for _, s := range c.sources {
		records, err := s.Events(ctx, year)
		if err != nil {
			ctxlog.Logger(ctx).Warn("error reading event source", "source", s.Name(), "year", year, "error", err)
			continue
		}
		all = append(all, records...)
	}
	SortByDate(all, c.loc)
	return all
}

// Year returns only the events dated in year.
func (c *Collection) Year(ctx context.Context, year int) []calendar.EventRecord {
	return InYear(c.Events(ctx, year), c.loc, year)
}
