package schedule

import (
	"os"
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

var fixtureNow = time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)

func parseFixture(t *testing.T, name string) []models.ScheduledFlightRecord {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	defer f.Close()

	recs, err := ParseScheduleHTML(f, fixtureNow, london(t))
	require.NoError(t, err)
	return recs
}

func TestParseSchedule_Fixture(t *testing.T) {
	recs := parseFixture(t, "page.html")
	require.Len(t, recs, 2)

	dep := recs[0]
	require.Equal(t, "09/10", dep.Date)
	require.Equal(t, "09:53", dep.Time)
	require.Equal(t, "BGA114", dep.Flight)
	require.Equal(t, "Toulouse", dep.Route)
	require.Equal(t, "A330-743L", dep.Aircraft)
	require.Equal(t, "scheduled", dep.Status)
	require.Equal(t, "Hawarden", dep.Airport)
	require.Equal(t, "EGNR", dep.ICAO)
	require.Equal(t, models.MovementDepartures, dep.Type)
	require.Equal(t, "Hawarden", dep.Departure)
	require.Equal(t, "Toulouse", dep.Arrival)
	require.Equal(t, fixtureNow, dep.ScrapedAt)
	require.NotNil(t, dep.Datetime)
	require.Equal(t, time.Date(2025, 10, 9, 8, 53, 0, 0, time.UTC), *dep.Datetime)

	arr := recs[1]
	require.Equal(t, "BGA116", arr.Flight)
	require.Equal(t, "11:53", arr.Time)
	require.Equal(t, "LFBO", arr.ICAO)
	require.Equal(t, models.MovementArrivals, arr.Type)
	require.Equal(t, "delayed", arr.Status)
}

func TestParseSchedule_NoHeadings(t *testing.T) {
	recs, err := ParseScheduleHTML(stringsReader("<html><body><table><tr><td>1</td></tr></table></body></html>"), fixtureNow, nil)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestDisplayDateTime(t *testing.T) {
	date, clock := displayDateTime("1760000000", time.UTC)
	require.Equal(t, "09/10", date)
	require.Equal(t, "08:53", clock)

	date, clock = displayDateTime("", time.UTC)
	require.Empty(t, date)
	require.Empty(t, clock)
}
