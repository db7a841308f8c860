package schedule

import (
	"os"
	"strings"
	"testing"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

func parseLocationsFixture(t *testing.T, name string) (models.Locations, string) {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	defer f.Close()

	locs, strategy, err := ParseLocationsHTML(f)
	require.NoError(t, err)
	return locs, strategy
}

func TestParseLocations_FlexRows(t *testing.T) {
	locs, strategy := parseLocationsFixture(t, "page.html")
	require.Equal(t, "flex-rows", strategy)
	require.Equal(t, models.Locations{"1": "Toulouse", "3": "Hawarden"}, locs)
}

func TestParseLocations_HeadingTable(t *testing.T) {
	locs, strategy := parseLocationsFixture(t, "table_locations.html")
	require.Equal(t, "heading-table", strategy)
	require.Equal(t, models.Locations{"2": "Broughton", "5": "Saint-Nazaire"}, locs)
}

func TestParseLocations_FlattenedCells(t *testing.T) {
	locs, strategy := parseLocationsFixture(t, "flat_locations.html")
	require.Equal(t, "flattened-cells", strategy)
	require.Equal(t, models.Locations{"4": "Hamburg", "6": "Getafe"}, locs)
}

func TestParseLocations_NothingFound(t *testing.T) {
	locs, strategy, err := ParseLocationsHTML(stringsReader("<html><body><h2>Other</h2><table><tr><td>BelugaXL-1</td><td>X</td></tr></table></body></html>"))
	require.NoError(t, err)
	require.Empty(t, strategy)
	require.Empty(t, locs)
}
