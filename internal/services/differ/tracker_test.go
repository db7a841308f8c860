package differ

import (
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type memStateStore struct {
	st      models.FleetState
	loadErr error
	saves   int
}

func (m *memStateStore) LoadFleetState() (models.FleetState, error) {
	if m.loadErr != nil {
		return models.FleetState{}, m.loadErr
	}
	return m.st, nil
}

func (m *memStateStore) SaveFleetState(st models.FleetState) error {
	m.st = st
	m.saves++
	return nil
}

func TestTracker_ObservePersistsSets(t *testing.T) {
	store := &memStateStore{}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker("EGNR", store).WithClock(func() time.Time { return at })

	evs := tr.Observe(snap(active("F-GXLH"), inbound("F-GXLG", "EGNR")))
	require.Len(t, evs, 3)
	require.Equal(t, at, evs[0].OccurredAt)

	require.Equal(t, 1, store.saves)
	require.Equal(t, []string{"F-GXLG", "F-GXLH"}, store.st.Active)
	require.Equal(t, []string{"F-GXLG"}, store.st.Inbound)

	require.Empty(t, tr.Observe(snap(active("F-GXLH"), inbound("F-GXLG", "EGNR"))))
}

func TestTracker_RestoresStateOnFirstObserve(t *testing.T) {
	store := &memStateStore{st: models.FleetState{Active: []string{"F-GXLG"}, Inbound: []string{"F-GXLG"}}}
	tr := NewTracker("EGNR", store)

	require.Empty(t, tr.Observe(snap(inbound("F-GXLG", "EGNR"))))

	a, i := tr.State()
	require.Equal(t, []string{"F-GXLG"}, a)
	require.Equal(t, []string{"F-GXLG"}, i)
}

func TestTracker_LoadFailureStartsEmpty(t *testing.T) {
	store := &memStateStore{loadErr: errors.New("corrupt")}
	tr := NewTracker("EGNR", store)

	evs := tr.Observe(snap(active("F-GXLG")))
	require.Len(t, evs, 1)
}

func TestTracker_NilStore(t *testing.T) {
	tr := NewTracker("EGNR", nil)
	require.Len(t, tr.Observe(snap(active("A"))), 1)
	require.Empty(t, tr.Observe(snap(active("A"))))
}
