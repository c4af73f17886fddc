package bbref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/vesta/internal/table"
)

// ParseHTML converts raw HTML to a goquery Document for parsing. Comment
// markers are removed first because the site ships secondary tables inside
// HTML comments and unhides them with script.
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	htmlContent = strings.NewReplacer("<!--", "", "-->", "").Replace(htmlContent)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ExtractTable pulls table#tableID out of a page or table fragment as a raw
// table. ok is false when the page has no such table.
func ExtractTable(htmlContent, tableID string) (table.Table, bool, error) {
	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return table.Table{}, false, err
	}
	return extractTable(doc, tableID)
}

func extractTable(doc *goquery.Document, tableID string) (table.Table, bool, error) {
	sel := doc.Find("table#" + tableID).First()
	if sel.Length() == 0 {
		return table.Table{}, false, nil
	}

	// Grouping headers sit above the real one.
	var columns []string
	sel.Find("thead tr").Last().Find("th, td").Each(func(_ int, th *goquery.Selection) {
		text := strings.TrimSpace(th.Text())
		for range colspan(th) {
			columns = append(columns, text)
		}
	})
	if len(columns) == 0 {
		return table.Table{}, false, fmt.Errorf("table %s has no header row", tableID)
	}

	var rows [][]table.Cell
	collect := func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") {
			return
		}
		var cells []table.Cell
		tr.Children().Filter("th, td").Each(func(_ int, td *goquery.Selection) {
			cell := table.Missing()
			if text := strings.TrimSpace(td.Text()); text != "" {
				cell = table.Value(text)
			}
			// A spanned cell fills every column it covers, e.g. a
			// "Did Not Play" season.
			for range colspan(td) {
				cells = append(cells, cell)
			}
		})
		rows = append(rows, cells)
	}
	sel.Find("tbody").ChildrenFiltered("tr").Each(collect)
	sel.Find("tfoot").ChildrenFiltered("tr").Each(collect)

	return table.New(columns, rows), true, nil
}

// colspan returns the number of columns a cell covers, at least 1.
func colspan(cell *goquery.Selection) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr("colspan", "1")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
