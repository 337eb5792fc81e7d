package csvexport

import (
	"encoding/csv"
	"os"
	"sync"
	"testing"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	return records
}

func TestAppendCreatesFileWithHeader(t *testing.T) {
	e := NewExporter(t.TempDir())

	row := Row{
		Name: "Asha", Mobile: "+911234567890", Date: "2026-09-05",
		TimeSlot: "10:30", Doctor: "Dr. Rao", Specialty: "Cardiology",
	}
	if err := e.Append("hosp-1", row); err != nil {
		t.Fatalf("append: %v", err)
	}

	records := readAll(t, e.Path("hosp-1"))
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(records))
	}
	if records[0][0] != "name" || records[0][6] != "followup_date" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "Asha" || records[1][3] != "10:30" {
		t.Errorf("unexpected row: %v", records[1])
	}
}

func TestAppendDoesNotRepeatHeader(t *testing.T) {
	e := NewExporter(t.TempDir())

	for i := 0; i < 3; i++ {
		if err := e.Append("hosp-1", Row{Name: "P", Mobile: "1", Date: "2026-09-05", TimeSlot: "09:30"}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	records := readAll(t, e.Path("hosp-1"))
	if len(records) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(records))
	}
	for _, rec := range records[1:] {
		if rec[0] == "name" {
			t.Error("header repeated mid-file")
		}
	}
}

func TestSeparateFilesPerHospital(t *testing.T) {
	e := NewExporter(t.TempDir())

	e.Append("hosp-1", Row{Name: "A"})
	e.Append("hosp-2", Row{Name: "B"})

	if e.Path("hosp-1") == e.Path("hosp-2") {
		t.Fatal("hospitals share an export file")
	}
	if got := readAll(t, e.Path("hosp-1")); got[1][0] != "A" {
		t.Errorf("hosp-1 row = %v", got[1])
	}
	if got := readAll(t, e.Path("hosp-2")); got[1][0] != "B" {
		t.Errorf("hosp-2 row = %v", got[1])
	}
}

func TestConcurrentAppends(t *testing.T) {
	e := NewExporter(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Append("hosp-1", Row{Name: "P", Date: "2026-09-05"}); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	records := readAll(t, e.Path("hosp-1"))
	if len(records) != 21 {
		t.Errorf("got %d rows, want header + 20", len(records))
	}
}
