package notify

import (
	"testing"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter(models.DefaultRoster(), "")

	n := f.Format(models.TransitionEvent{Kind: models.TransitionBecameActive, Registration: "F-GXLI", Flight: "BGA114"})
	require.Equal(t, models.Notification{Title: "F-GXLI is active", Body: "BelugaXL-3 is flying as BGA114.", URL: "/"}, n)

	n = f.Format(models.TransitionEvent{Kind: models.TransitionBecameActive, Registration: "F-GXLO"})
	require.Equal(t, "BelugaXL-6 is flying.", n.Body)

	n = f.Format(models.TransitionEvent{Kind: models.TransitionInbound, Registration: "F-GXLG", Airport: "EGNR", Flight: "BGA7"})
	require.Equal(t, "F-GXLG inbound to EGNR", n.Title)
	require.Equal(t, "BelugaXL-1 is heading to EGNR as BGA7.", n.Body)

	n = f.Format(models.TransitionEvent{Kind: models.TransitionInbound, Registration: "N1", Airport: "EGNR"})
	require.Equal(t, "N1 is heading to EGNR.", n.Body)
}

func TestFormatter_UnknownKindFallsBackToDefaults(t *testing.T) {
	n := NewFormatter(nil, "/x").Format(models.TransitionEvent{Kind: "other"})
	require.Equal(t, models.DefaultNotificationTitle, n.Title)
	require.Equal(t, models.DefaultNotificationBody, n.Body)
	require.Equal(t, "/x", n.URL)
}
