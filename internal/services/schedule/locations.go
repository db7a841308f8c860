package schedule

import (
	"io"
	"regexp"
	"strings"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const locationsHeading = "where are the belugas now"

var fleetNumberRe = regexp.MustCompile(`(?i)BelugaXL-(\d+)`)

// LocationStrategy is one way of reading the fleet locations block. Parse must not mutate doc.
type LocationStrategy struct {
	Name  string
	Parse func(doc *goquery.Document) models.Locations
}

// LocationStrategies are tried in order; the first non-empty result wins.
var LocationStrategies = []LocationStrategy{
	{Name: "flex-rows", Parse: flexRows},
	{Name: "heading-table", Parse: headingTable},
	{Name: "flattened-cells", Parse: flattenedCells},
}

// ParseLocations returns the parsed locations and the name of the strategy that produced them.
func ParseLocations(doc *goquery.Document) (models.Locations, string) {
	for _, s := range LocationStrategies {
		if locs := s.Parse(doc); len(locs) > 0 {
			return locs, s.Name
		}
	}
	return models.Locations{}, ""
}

func ParseLocationsHTML(r io.Reader) (models.Locations, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "parse html")
	}
	locs, strategy := ParseLocations(doc)
	return locs, strategy, nil
}

func locationsHeadingSel(doc *goquery.Document) *goquery.Selection {
	return doc.Find("h2").FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(strings.TrimSpace(h.Text())), locationsHeading)
	})
}

func locationsTable(doc *goquery.Document) *goquery.Selection {
	return locationsHeadingSel(doc).NextAllFiltered("table").First()
}

// put stores value under the fleet number found in label, if any.
func put(locs models.Locations, label, value string) {
	m := fleetNumberRe.FindStringSubmatch(label)
	if m == nil {
		return
	}
	locs[m[1]] = value
}

func flexRows(doc *goquery.Document) models.Locations {
	locs := models.Locations{}
	locationsHeadingSel(doc).NextUntil("h2").Find(".flex-row").Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("header") {
			return
		}
		cells := cellTexts(row.Find(".flex-cell"))
		if len(cells) < 2 {
			return
		}
		put(locs, cells[0], cells[1])
	})
	return locs
}

func headingTable(doc *goquery.Document) models.Locations {
	locs := models.Locations{}
	locationsTable(doc).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row.Find("td, th"))
		if len(cells) < 2 {
			return
		}
		put(locs, cells[0], cells[1])
	})
	return locs
}

func flattenedCells(doc *goquery.Document) models.Locations {
	locs := models.Locations{}
	cells := cellTexts(locationsTable(doc).Find("td"))
	for i := 0; i+1 < len(cells); i += 2 {
		put(locs, cells[i], cells[i+1])
	}
	return locs
}
