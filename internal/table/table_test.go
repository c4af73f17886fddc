package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Run("Should accept tool names case-insensitively", func(t *testing.T) {
		cases := map[string]Category{
			"PER_GAME":       PerGame,
			"per_game":       PerGame,
			"":               PerGame,
			"TOTALS":         Totals,
			"per_minute":     PerMinute,
			"PER_POSS":       PerPossession,
			"PER_POSSESSION": PerPossession,
			"Advanced":       Advanced,
		}
		for in, want := range cases {
			got, err := ParseCategory(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}
	})

	t.Run("Should reject unknown names", func(t *testing.T) {
		_, err := ParseCategory("SHOT_CHART")
		assert.ErrorContains(t, err, "SHOT_CHART")
	})
}

func TestCategoryTableID(t *testing.T) {
	t.Run("Should map categories to page table ids", func(t *testing.T) {
		assert.Equal(t, "per_game_stats", PerGame.TableID(false))
		assert.Equal(t, "totals_stats", Totals.TableID(false))
		assert.Equal(t, "per_minute_stats", PerMinute.TableID(false))
		assert.Equal(t, "per_poss_stats", PerPossession.TableID(false))
		assert.Equal(t, "advanced", Advanced.TableID(false))
		assert.Equal(t, "advanced_post", Advanced.TableID(true))
		assert.Equal(t, "per_game_stats_post", PerGame.TableID(true))
	})

	t.Run("Should render per-minute, per-possession and playoff tables", func(t *testing.T) {
		assert.False(t, PerGame.Rendered(false))
		assert.False(t, Advanced.Rendered(false))
		assert.True(t, PerMinute.Rendered(false))
		assert.True(t, PerPossession.Rendered(false))
		assert.True(t, Totals.Rendered(true))
	})
}

func TestSeasonLabel(t *testing.T) {
	assert.Equal(t, "2022-23", SeasonLabel(2023))
	assert.Equal(t, "1999-00", SeasonLabel(2000))
	assert.Equal(t, "2008-09", SeasonLabel(2009))
	assert.True(t, IsSeasonLabel("2022-23"))
	assert.False(t, IsSeasonLabel("Career"))
	assert.False(t, IsSeasonLabel("2023"))
}

func TestTable(t *testing.T) {
	tbl := New(
		[]string{"SEASON", "PTS", "AWARDS"},
		[][]Cell{
			{Value("2021-22"), Value("30.3"), Missing()},
			{Value("2022-23"), Value("28.9"), Value("AS")},
		},
	)

	t.Run("Should filter by season and keep the original index", func(t *testing.T) {
		out := tbl.WhereSeason("2022-23")
		require.Equal(t, 1, out.Len())
		assert.Equal(t, []int{1}, out.Index)
		assert.Equal(t, "AS", out.Row(0).String("AWARDS"))
	})

	t.Run("Should convert rows into records", func(t *testing.T) {
		recs := tbl.Records()
		require.Len(t, recs, 2)
		assert.Equal(t, "2021-22", recs[0]["SEASON"])
		assert.Equal(t, 30.3, recs[0]["PTS"])
		assert.Nil(t, recs[0]["AWARDS"])
	})

	t.Run("Should skip values that are not numbers", func(t *testing.T) {
		_, ok := tbl.Row(0).Float("SEASON")
		assert.False(t, ok)
		_, ok = tbl.Row(0).Float("AWARDS")
		assert.False(t, ok)
		_, ok = tbl.Row(0).Float("MISSING")
		assert.False(t, ok)
		f, ok := Value(".512").Float()
		assert.True(t, ok)
		assert.InDelta(t, 0.512, f, 1e-9)
	})

	t.Run("Should pad short rows", func(t *testing.T) {
		short := New([]string{"A", "B"}, [][]Cell{{Value("1")}})
		assert.Len(t, short.Rows[0], 2)
		assert.False(t, short.Rows[0][1].Valid)
	})
}
