package filestore

import (
	"github.com/BearBump/FleetWatch/internal/models"
)

// LoadSchedule never returns nil. On a decode failure it returns an empty list and the error.
func (s *Store) LoadSchedule() ([]models.ScheduledFlightRecord, error) {
	var recs []models.ScheduledFlightRecord
	if _, err := s.readJSON(s.files.Schedule, &recs); err != nil {
		logReadFailure(s.files.Schedule, err)
		return []models.ScheduledFlightRecord{}, err
	}
	if recs == nil {
		recs = []models.ScheduledFlightRecord{}
	}
	return recs, nil
}

func (s *Store) SaveSchedule(recs []models.ScheduledFlightRecord) error {
	if recs == nil {
		recs = []models.ScheduledFlightRecord{}
	}
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.writeJSON(s.files.Schedule, recs)
}

func (s *Store) LoadLocations() (models.Locations, error) {
	locs := models.Locations{}
	if _, err := s.readJSON(s.files.Locations, &locs); err != nil {
		logReadFailure(s.files.Locations, err)
		return models.Locations{}, err
	}
	if locs == nil {
		locs = models.Locations{}
	}
	return locs, nil
}

func (s *Store) SaveLocations(locs models.Locations) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.writeJSON(s.files.Locations, locs)
}

func (s *Store) LoadFleetState() (models.FleetState, error) {
	var st models.FleetState
	if _, err := s.readJSON(s.files.FleetState, &st); err != nil {
		logReadFailure(s.files.FleetState, err)
		return models.FleetState{}, err
	}
	return st, nil
}

func (s *Store) SaveFleetState(st models.FleetState) error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.writeJSON(s.files.FleetState, st)
}
