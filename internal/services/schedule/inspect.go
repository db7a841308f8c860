package schedule

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	reportHeadings = 10
	reportRows     = 3
)

// PageReport summarizes the page structure the parsers depend on.
type PageReport struct {
	Tables           int               `json:"tables"`
	Headings         int               `json:"headings"`
	FirstHeadings    []string          `json:"firstHeadings"`
	FirstTableRows   [][]string        `json:"firstTableRows"`
	LocationStrategy string            `json:"locationStrategy"`
	Locations        map[string]string `json:"locations"`
}

// Inspect is used when the upstream markup changes and the parsers stop matching.
func Inspect(doc *goquery.Document) PageReport {
	rep := PageReport{
		Tables:         doc.Find("table").Length(),
		FirstHeadings:  []string{},
		FirstTableRows: [][]string{},
	}

	headings := doc.Find("h3, h4")
	rep.Headings = headings.Length()
	headings.EachWithBreak(func(i int, h *goquery.Selection) bool {
		if i >= reportHeadings {
			return false
		}
		rep.FirstHeadings = append(rep.FirstHeadings, goquery.NodeName(h)+": "+strings.TrimSpace(h.Text()))
		return true
	})

	doc.Find("table").First().Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= reportRows {
			return false
		}
		rep.FirstTableRows = append(rep.FirstTableRows, cellTexts(row.Find("th, td")))
		return true
	})

	rep.Locations, rep.LocationStrategy = ParseLocations(doc)
	return rep
}
