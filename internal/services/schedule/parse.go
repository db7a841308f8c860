package schedule

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

var headingRe = regexp.MustCompile(`^(.+?)\s+\(([A-Z]{4})\)\s+(Arrivals|Departures)$`)

const minCells = 6

// ParseSchedule extracts flight rows from every "<Airport> (<ICAO>) Arrivals|Departures" section.
func ParseSchedule(doc *goquery.Document, now time.Time, loc *time.Location) []models.ScheduledFlightRecord {
	if loc == nil {
		loc = time.UTC
	}
	scrapedAt := now.UTC()
	var out []models.ScheduledFlightRecord

	doc.Find("h3").Each(func(_ int, h *goquery.Selection) {
		text := strings.TrimSpace(h.Text())
		m := headingRe.FindStringSubmatch(text)
		if m == nil {
			return
		}
		airport, icao, kind := m[1], m[2], m[3]

		table := h.NextAllFiltered("table").First()
		if table.Length() == 0 {
			slog.Warn("schedule heading without table", "heading", text)
			return
		}

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			cells := cellTexts(row.Find("td"))
			if len(cells) < minCells {
				return
			}
			flight := cells[2]
			date, clock := displayDateTime(cells[0], loc)
			if date == "" || flight == "" {
				slog.Debug("schedule row skipped", "heading", text, "row", i, "cells", cells)
				return
			}

			out = append(out, models.ScheduledFlightRecord{
				ScrapedAt: scrapedAt,
				Date:      date,
				Time:      clock,
				Status:    cells[5],
				Flight:    flight,
				Route:     cells[3],
				Aircraft:  cells[4],
				Airport:   airport,
				ICAO:      icao,
				Type:      kind,
				Departure: airport,
				Arrival:   cells[3],
				Datetime:  InferDatetime(date, clock, now, loc),
			})
		})
	})
	return out
}

func ParseScheduleHTML(r io.Reader, now time.Time, loc *time.Location) ([]models.ScheduledFlightRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return ParseSchedule(doc, now, loc), nil
}

// displayDateTime renders a unix seconds cell as "dd/mm" and "hh:mm" in loc.
func displayDateTime(cell string, loc *time.Location) (string, string) {
	digits := leadingDigits(cell)
	if digits == "" {
		return "", ""
	}
	ts, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return "", ""
	}
	t := time.Unix(ts, 0).In(loc)
	return t.Format("02/01"), t.Format("15:04")
}

func cellTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, c *goquery.Selection) {
		out = append(out, strings.TrimSpace(c.Text()))
	})
	return out
}
