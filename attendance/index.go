package attendance

import (
	"sort"

	"github.com/warp/attendance-engine/calendar"
)

// Index looks up records by (employee, date).
//
// A key with more than one record, or with an invalid record, is poisoned:
// Get reports it as unusable so callers skip the day rather than pick one row
// or treat the day as record-less. The problem is reported once, by NewIndex.
type Index struct {
	records  map[indexKey]*Record
	poisoned map[indexKey]bool
}

type indexKey struct {
	EmployeeID string
	Date       calendar.Date
}

// NewIndex builds an index and returns a failure per unusable key.
func NewIndex(records []Record) (*Index, []Failure) {
	ix := &Index{
		records:  make(map[indexKey]*Record, len(records)),
		poisoned: make(map[indexKey]bool),
	}
	counts := make(map[indexKey]int)

	var failures []Failure
	for i := range records {
		rec := &records[i]
		k := indexKey{EmployeeID: rec.EmployeeID, Date: rec.Date}
		counts[k]++

		if err := rec.Validate(); err != nil {
			failures = append(failures, Failure{EmployeeID: rec.EmployeeID, Date: rec.Date, Err: err})
			ix.poisoned[k] = true
			continue
		}
		if _, exists := ix.records[k]; exists {
			ix.poisoned[k] = true
			continue
		}
		ix.records[k] = rec
	}

	for k, n := range counts {
		if n > 1 {
			failures = append(failures, Failure{
				EmployeeID: k.EmployeeID,
				Date:       k.Date,
				Err:        &DuplicateRecordError{EmployeeID: k.EmployeeID, Date: k.Date, Count: n},
			})
		}
	}
	for k := range ix.poisoned {
		delete(ix.records, k)
	}

	SortFailures(failures)
	return ix, failures
}

// Get returns the record for (employee, date). ok is false when the key is
// poisoned; rec is nil with ok true when there simply is no record.
func (ix *Index) Get(employeeID string, date calendar.Date) (rec *Record, ok bool) {
	if ix == nil {
		return nil, true
	}
	k := indexKey{EmployeeID: employeeID, Date: date}
	if ix.poisoned[k] {
		return nil, false
	}
	return ix.records[k], true
}

// Len returns the number of usable records.
func (ix *Index) Len() int { return len(ix.records) }

// SortFailures orders failures by employee then date for stable output.
func SortFailures(fs []Failure) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].EmployeeID != fs[j].EmployeeID {
			return fs[i].EmployeeID < fs[j].EmployeeID
		}
		return fs[i].Date.Before(fs[j].Date)
	})
}
