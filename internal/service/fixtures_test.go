package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortuna/vesta/internal/ingest/bbref"
	"github.com/fortuna/vesta/internal/table"
)

// fakeSource serves normalized datasets keyed by player, category and phase.
type fakeSource struct {
	datasets  map[string]*bbref.Dataset
	headshots map[string]string
	err       error
	calls     []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{datasets: map[string]*bbref.Dataset{}, headshots: map[string]string{}}
}

func sourceKey(player string, category table.Category, playoffs bool) string {
	return fmt.Sprintf("%s|%s|%t", player, category, playoffs)
}

func (f *fakeSource) Fetch(_ context.Context, player string, category table.Category, playoffs bool) (*bbref.Dataset, error) {
	key := sourceKey(player, category, playoffs)
	f.calls = append(f.calls, key)
	if f.err != nil {
		return nil, f.err
	}
	if ds, ok := f.datasets[key]; ok {
		return ds, nil
	}
	return &bbref.Dataset{}, nil
}

func (f *fakeSource) Headshot(_ context.Context, player string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.headshots[player], nil
}

// add normalizes a raw table the way the bbref source does.
func (f *fakeSource) add(player string, category table.Category, playoffs bool, raw table.Table) {
	opts := table.Options{Category: category, Playoffs: playoffs}
	n := table.Normalizer{}
	ds := &bbref.Dataset{Seasons: n.Normalize(raw, opts)}
	ds.Career, ds.HasCareer = n.Career(raw, opts)
	f.datasets[sourceKey(player, category, playoffs)] = ds
}

// raw builds a raw table from whitespace-separated rows; "-" marks a missing cell.
func raw(header string, rows ...string) table.Table {
	var cells [][]table.Cell
	for _, r := range rows {
		var row []table.Cell
		for _, v := range strings.Fields(r) {
			if v == "-" {
				row = append(row, table.Missing())
				continue
			}
			row = append(row, table.Value(v))
		}
		cells = append(cells, row)
	}
	return table.New(strings.Fields(header), cells)
}

const perGameHeader = "Season Age Tm Lg Pos G FG FGA FG 3P 3PA 3P% FT FTA FT TRB AST STL BLK PTS Awards"

func lebronPerGame() table.Table {
	return raw(perGameHeader,
		"2003-04 19 CLE NBA SG 79 7.9 18.9 .417 0.8 2.7 .290 4.4 5.8 .754 5.5 5.9 1.6 0.7 20.9 ROY-1",
		"2004-05 20 CLE NBA SF 80 9.9 21.1 .472 1.4 3.9 .351 6.0 7.6 .750 7.4 7.2 2.2 0.7 27.2 AS,NBA2",
		"2005-06 21 CLE NBA SF 79 11.1 23.1 .480 0.5 0.9 .400 7.6 10.3 .738 7.0 6.6 1.6 0.8 31.4 AS,MVP-2",
		"Career - - NBA - 238 9.6 21.0 .460 0.9 2.5 .345 6.0 7.9 .747 6.6 6.6 1.8 0.7 26.5 -",
	)
}

func carmeloPerGame() table.Table {
	return raw(perGameHeader,
		"2003-04 19 DEN NBA SF 82 7.7 18.6 .426 0.8 2.4 .322 4.6 5.9 .777 6.1 2.8 1.2 0.5 21.0 ROY-2",
		"2004-05 20 DEN NBA SF 75 7.1 16.2 .431 0.3 1.5 .206 6.2 7.7 .796 5.7 2.6 0.9 0.4 20.8 -",
		"Career - - NBA - 157 7.4 17.5 .428 0.6 2.0 .272 5.4 6.8 .787 5.9 2.7 1.1 0.5 20.9 -",
	)
}

func lebronPlayoffPerGame() table.Table {
	return raw("Season Tm G PTS AST TRB FG% 3P% FT%",
		"2005-06 CLE 13 30.8 5.8 8.1 .476 .333 .737",
		"Career - 13 30.8 5.8 8.1 .476 .333 .737",
	)
}

func lebronTotals() table.Table {
	return raw("Season Tm G PTS",
		"2003-04 CLE 79 1654",
		"2004-05 CLE 80 2175",
		"2005-06 CLE 79 2478",
		"Career - 238 6307",
	)
}

func lebronAdvanced() table.Table {
	return raw("Season Tm G MP PER TS% WS BPM VORP",
		"2003-04 CLE 79 3122 18.3 .488 5.1 2.5 3.1",
		"2004-05 CLE 80 3388 25.7 .554 14.3 8.2 7.8",
		"2005-06 CLE 79 3361 28.1 .568 16.3 9.1 8.5",
		"Career - 238 9871 24.2 .540 35.7 6.6 19.4",
	)
}

func lebronPerMinute() table.Table {
	return raw("Season Tm G PTS",
		"2003-04 CLE 79 19.1",
		"2004-05 CLE 80 23.1",
		"Career - 159 21.1",
	)
}

const (
	lebron  = "LeBron James"
	carmelo = "Carmelo Anthony"
)

func seededSource() *fakeSource {
	f := newFakeSource()
	f.add(lebron, table.PerGame, false, lebronPerGame())
	f.add(lebron, table.PerGame, true, lebronPlayoffPerGame())
	f.add(lebron, table.Totals, false, lebronTotals())
	f.add(lebron, table.Advanced, false, lebronAdvanced())
	f.add(lebron, table.PerMinute, false, lebronPerMinute())
	f.add(carmelo, table.PerGame, false, carmeloPerGame())
	f.headshots[lebron] = "https://www.basketball-reference.com/req/202106291/images/headshots/jamesle01.jpg"
	return f
}
