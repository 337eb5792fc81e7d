// Package csvexport appends booking rows to per-hospital CSV files so
// front-desk staff can pull a day's bookings into a spreadsheet without
// touching the API.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var header = []string{"name", "mobile", "date", "time_slot", "doctor", "specialty", "followup_date"}

// Row is one exported booking.
type Row struct {
	Name         string
	Mobile       string
	Date         string
	TimeSlot     string
	Doctor       string
	Specialty    string
	FollowUpDate string
}

// Exporter appends rows to one CSV file per hospital under a base directory.
// Safe for concurrent use; appends to the same file are serialized.
type Exporter struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewExporter(dir string) *Exporter {
	return &Exporter{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

func (e *Exporter) fileLock(hospitalID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[hospitalID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[hospitalID] = l
	}
	return l
}

// Path returns the CSV file path for a hospital.
func (e *Exporter) Path(hospitalID string) string {
	return filepath.Join(e.dir, fmt.Sprintf("appointments_%s.csv", hospitalID))
}

// Append writes one row to the hospital's CSV file, creating the file with
// a header row on first write.
func (e *Exporter) Append(hospitalID string, row Row) error {
	l := e.fileLock(hospitalID)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	path := e.Path(hospitalID)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing csv header: %w", err)
		}
	}
	if err := w.Write([]string{
		row.Name, row.Mobile, row.Date, row.TimeSlot, row.Doctor, row.Specialty, row.FollowUpDate,
	}); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
