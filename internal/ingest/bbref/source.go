package bbref

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/vesta/internal/logging"
	"github.com/fortuna/vesta/internal/table"
)

// TableNormalizer turns a raw extract into canonical season rows and the
// career aggregate row.
type TableNormalizer interface {
	Split(raw table.Table, opts table.Options) (table.Table, table.Row, bool)
}

// Dataset is one player's canonical table for a category.
type Dataset struct {
	Seasons   table.Table
	Career    table.Row
	HasCareer bool
}

// Empty reports whether the player had no rows for the table.
func (d *Dataset) Empty() bool {
	return d == nil || d.Seasons.Empty()
}

// Source joins lookup, fetch, extraction and normalization.
type Source struct {
	pages      PageFetcher
	lookup     *Lookup
	normalizer TableNormalizer
	logger     *logrus.Entry
}

// NewSource creates a Source. The normalizer is injected so callers can swap
// the column repair without touching fetch logic.
func NewSource(pages PageFetcher, lookup *Lookup, normalizer TableNormalizer, logger logrus.FieldLogger) *Source {
	if logger == nil {
		logger = logging.Discard()
	}
	if normalizer == nil {
		normalizer = table.Normalizer{}
	}
	return &Source{
		pages:      pages,
		lookup:     lookup,
		normalizer: normalizer,
		logger:     logging.Component(logger, "source"),
	}
}

// Fetch returns the player's table for category. An unknown player or a
// missing table yields an empty Dataset and no error.
func (s *Source) Fetch(ctx context.Context, player string, category table.Category, playoffs bool) (*Dataset, error) {
	locator, err := s.lookup.Resolve(ctx, player)
	if err != nil {
		return nil, err
	}
	if locator == "" {
		return &Dataset{}, nil
	}

	tableID := category.TableID(playoffs)
	log := s.logger.WithFields(logrus.Fields{
		"player":  player,
		"table":   tableID,
		"locator": locator,
	})

	var body string
	if category.Rendered(playoffs) {
		body, err = s.pages.Render(ctx, locator, tableID)
	} else {
		body, err = s.pages.Get(ctx, locator)
	}
	if errors.Is(err, ErrNotFound) {
		if !category.Rendered(playoffs) {
			// The player page itself is gone, so the cached locator is stale.
			s.lookup.Invalidate(ctx, player)
		}
		log.Debug("table not available")
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s for %q: %w", tableID, player, err)
	}

	raw, ok, err := ExtractTable(body, tableID)
	if err != nil {
		return nil, fmt.Errorf("extracting %s for %q: %w", tableID, player, err)
	}
	if !ok {
		log.Debug("table not on page")
		return &Dataset{}, nil
	}

	opts := table.Options{Category: category, Playoffs: playoffs}
	ds := &Dataset{}
	ds.Seasons, ds.Career, ds.HasCareer = s.normalizer.Split(raw, opts)

	for i := range ds.Seasons.Len() {
		if season := ds.Seasons.Season(i); season != "" && !table.IsSeasonLabel(season) {
			log.WithFields(logrus.Fields{"row": i, "season": season}).Debug("unexpected season label")
		}
	}

	log.WithField("rows", ds.Seasons.Len()).Debug("fetched table")
	return ds, nil
}

// Headshot returns the player's headshot URL, or "" when unknown.
func (s *Source) Headshot(ctx context.Context, player string) (string, error) {
	return s.lookup.Headshot(ctx, player)
}
