package bbref

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/vesta/internal/table"
)

// countingNormalizer records the options it is called with.
type countingNormalizer struct {
	table.Normalizer
	calls []table.Options
}

func (c *countingNormalizer) Split(raw table.Table, opts table.Options) (table.Table, table.Row, bool) {
	c.calls = append(c.calls, opts)
	return c.Normalizer.Split(raw, opts)
}

func TestSourceFetch(t *testing.T) {
	player := loadFixture(t, "jamesle01.html")
	ctx := context.Background()
	const locator = "/players/j/jamesle01.html"

	newSource := func(pages *fakePages, n TableNormalizer) *Source {
		return NewSource(pages, NewLookup(pages, nil, nil, nil), n, nil)
	}

	t.Run("Should fetch a static table and split off the career row", func(t *testing.T) {
		pages := &fakePages{pages: map[string]string{"/search/": player, "/players/": player}}
		ds, err := newSource(pages, nil).Fetch(ctx, "LeBron James", table.PerGame, false)
		require.NoError(t, err)

		assert.Equal(t, 2, ds.Seasons.Len())
		require.True(t, ds.HasCareer)
		assert.Equal(t, table.CareerLabel, ds.Career.String(table.ColSeason))
		pts, _ := ds.Career.Float("PTS")
		assert.InDelta(t, 24.1, pts, 1e-9)
		assert.Equal(t, []string{"/search/search.fcgi?search=LeBron+James", locator}, pages.gets)
	})

	t.Run("Should drop games and minutes from advanced tables", func(t *testing.T) {
		pages := &fakePages{pages: map[string]string{"/search/": player, "/players/": player}}
		ds, err := newSource(pages, nil).Fetch(ctx, "LeBron James", table.Advanced, false)
		require.NoError(t, err)
		assert.False(t, ds.Seasons.HasColumn("G"))
		assert.False(t, ds.Seasons.HasColumn("MP"))
		assert.True(t, ds.Seasons.HasColumn("PER"))
	})

	t.Run("Should render playoff tables", func(t *testing.T) {
		fragment := `<table id="totals_stats_post"><thead><tr><th>Season</th><th>G</th><th>PTS</th></tr></thead>
<tbody><tr><th>2005-06</th><td>13</td><td>401</td></tr></tbody>
<tfoot><tr><th>Career</th><td>13</td><td>401</td></tr></tfoot></table>`
		pages := &fakePages{
			pages:   map[string]string{"/search/": player},
			renders: map[string]string{locator + "#totals_stats_post": fragment},
		}
		n := &countingNormalizer{}
		ds, err := newSource(pages, n).Fetch(ctx, "LeBron James", table.Totals, true)
		require.NoError(t, err)

		assert.Equal(t, 1, ds.Seasons.Len())
		assert.Equal(t, []table.Options{{Category: table.Totals, Playoffs: true}}, n.calls)
	})

	t.Run("Should return an empty dataset for unknown players", func(t *testing.T) {
		pages := &fakePages{pages: map[string]string{"/search/": loadFixture(t, "search_empty.html")}}
		ds, err := newSource(pages, nil).Fetch(ctx, "Nobody Atall", table.PerGame, false)
		require.NoError(t, err)
		assert.True(t, ds.Empty())
	})

	t.Run("Should return an empty dataset when the table never renders", func(t *testing.T) {
		pages := &fakePages{pages: map[string]string{"/search/": player}}
		ds, err := newSource(pages, nil).Fetch(ctx, "LeBron James", table.PerMinute, false)
		require.NoError(t, err)
		assert.True(t, ds.Empty())
	})

	t.Run("Should forget a cached locator whose page is gone", func(t *testing.T) {
		pages := &fakePages{pages: map[string]string{"/search/": player}}
		cache := &memoryCache{entries: map[string]string{"lebron james": "/players/j/jamesle99.html"}}
		src := NewSource(pages, NewLookup(pages, cache, nil, nil), nil, nil)

		ds, err := src.Fetch(ctx, "LeBron James", table.PerGame, false)
		require.NoError(t, err)
		assert.True(t, ds.Empty())
		assert.NotContains(t, cache.entries, "lebron james")
	})

	t.Run("Should keep the cached locator when only a rendered table is missing", func(t *testing.T) {
		pages := &fakePages{pages: map[string]string{"/search/": player}}
		cache := &memoryCache{entries: map[string]string{"lebron james": locator}}
		src := NewSource(pages, NewLookup(pages, cache, nil, nil), nil, nil)

		ds, err := src.Fetch(ctx, "LeBron James", table.PerPossession, false)
		require.NoError(t, err)
		assert.True(t, ds.Empty())
		assert.Equal(t, locator, cache.entries["lebron james"])
	})

	t.Run("Should log rows whose season is not a season label", func(t *testing.T) {
		fragment := `<table id="per_poss_stats"><thead><tr><th>Season</th><th>G</th><th>PTS</th></tr></thead>
<tbody><tr><th>2005-06</th><td>79</td><td>36.1</td></tr><tr><th>2006-07</th><td>78</td><td>33.9</td></tr><tr><th>Did Not Play</th><td></td><td></td></tr></tbody></table>`
		pages := &fakePages{
			pages:   map[string]string{"/search/": player},
			renders: map[string]string{locator + "#per_poss_stats": fragment},
		}
		logger, hook := logtest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		src := NewSource(pages, NewLookup(pages, nil, nil, nil), nil, logger)

		ds, err := src.Fetch(ctx, "LeBron James", table.PerPossession, false)
		require.NoError(t, err)
		assert.Equal(t, 3, ds.Seasons.Len())

		var flagged []any
		for _, e := range hook.AllEntries() {
			if e.Message == "unexpected season label" {
				flagged = append(flagged, e.Data["season"])
			}
		}
		assert.Equal(t, []any{"Did Not Play"}, flagged)
	})

	t.Run("Should surface upstream failures", func(t *testing.T) {
		pages := &fakePages{err: ErrUpstream}
		_, err := newSource(pages, nil).Fetch(ctx, "LeBron James", table.PerGame, false)
		assert.ErrorIs(t, err, ErrUpstream)
	})
}
