package filestore

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	DefaultScheduleFile      = "flightSchedule.json"
	DefaultLocationsFile     = "belugaLocations.json"
	DefaultSubscriptionsFile = "subscriptions.json"
	DefaultFleetStateFile    = "fleetState.json"
)

type Files struct {
	Schedule      string
	Locations     string
	Subscriptions string
	FleetState    string
}

// Store keeps every piece of state as one JSON file that is always replaced whole.
type Store struct {
	dir   string
	files Files

	// subsMu makes subscription read-modify-write a critical section.
	subsMu sync.Mutex
	// fileMu serializes writers of the other files.
	fileMu sync.Mutex
}

func New(dir string) (*Store, error) {
	return NewWithFiles(dir, Files{})
}

func NewWithFiles(dir string, files Files) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	if files.Schedule == "" {
		files.Schedule = DefaultScheduleFile
	}
	if files.Locations == "" {
		files.Locations = DefaultLocationsFile
	}
	if files.Subscriptions == "" {
		files.Subscriptions = DefaultSubscriptionsFile
	}
	if files.FleetState == "" {
		files.FleetState = DefaultFleetStateFile
	}
	return &Store{dir: dir, files: files}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON reports found=false for a missing file. A file that does not parse is an error.
func (s *Store) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "read "+name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(err, "decode "+name)
	}
	return true, nil
}

// writeJSON replaces the file atomically: temp file, fsync, rename.
func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode "+name)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename "+name)
	}
	return nil
}

func logReadFailure(name string, err error) {
	slog.Warn("read store file, treating as empty", "file", name, "error", err.Error())
}
