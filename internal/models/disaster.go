package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type DisasterRecord struct {
	ID            string `json:"-"` // EM-DAT "Dis No", e.g. "2000-0123-CHN"
	Year          int    `json:"-"`
	Continent     string `json:"continent"`
	Country       string `json:"country"`
	ISO           string `json:"iso"`
	Group         string `json:"group"`
	Subgroup      string `json:"subgroup"`
	Type          string `json:"type"`
	Subtype       string `json:"subtype"`
	Deaths        int    `json:"deaths"`
	EntryCriteria string `json:"entry"`
}

// YearRecords maps disaster identifiers to records of a single type and year.
type YearRecords = Ordered[DisasterRecord]

// TypeHistory holds every record of one disaster type, bucketed by year in
// order of first appearance.
type TypeHistory struct {
	years *Ordered[*YearRecords]
}

func NewTypeHistory() *TypeHistory {
	return &TypeHistory{years: NewOrdered[*YearRecords]()}
}

func (h *TypeHistory) add(r DisasterRecord) {
	key := strconv.Itoa(r.Year)
	bucket, ok := h.years.Get(key)
	if !ok {
		bucket = NewOrdered[DisasterRecord]()
		h.years.Set(key, bucket)
	}
	bucket.Set(r.ID, r)
}

// Records returns the records of the given year, or nil when there are none.
func (h *TypeHistory) Records(year int) []DisasterRecord {
	bucket, ok := h.years.Get(strconv.Itoa(year))
	if !ok {
		return nil
	}
	records := make([]DisasterRecord, 0, bucket.Len())
	for _, id := range bucket.Keys() {
		r, _ := bucket.Get(id)
		records = append(records, r)
	}
	return records
}

func (h *TypeHistory) Years() []int {
	keys := h.years.Keys()
	years := make([]int, 0, len(keys))
	for _, k := range keys {
		y, _ := strconv.Atoi(k)
		years = append(years, y)
	}
	return years
}

func (h *TypeHistory) MarshalJSON() ([]byte, error) {
	return h.years.MarshalJSON()
}

// UnmarshalJSON restores the identifier and year of every record from the
// object keys, since neither is part of the stored record body.
func (h *TypeHistory) UnmarshalJSON(data []byte) error {
	years := NewOrdered[*YearRecords]()
	if err := years.UnmarshalJSON(data); err != nil {
		return err
	}

	for _, key := range years.Keys() {
		year, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: year key %q", ErrMalformedNumber, key)
		}
		bucket, _ := years.Get(key)
		if bucket == nil {
			bucket = NewOrdered[DisasterRecord]()
			years.Set(key, bucket)
		}
		for _, id := range bucket.Keys() {
			r, _ := bucket.Get(id)
			r.ID = id
			r.Year = year
			bucket.Set(id, r)
		}
	}

	h.years = years
	return nil
}

// DisasterIndex is the nested type -> year -> id mapping of all records.
type DisasterIndex struct {
	types *Ordered[*TypeHistory]
}

func NewDisasterIndex() *DisasterIndex {
	return &DisasterIndex{types: NewOrdered[*TypeHistory]()}
}

// Insert adds r under [type][year][id], creating buckets on first use.
// A repeated identifier replaces the earlier record in place.
func (x *DisasterIndex) Insert(r DisasterRecord) {
	h, ok := x.types.Get(r.Type)
	if !ok {
		h = NewTypeHistory()
		x.types.Set(r.Type, h)
	}
	h.add(r)
}

// Types returns the distinct disaster types in order of first discovery.
func (x *DisasterIndex) Types() []string {
	return x.types.Keys()
}

func (x *DisasterIndex) History(disasterType string) (*TypeHistory, bool) {
	return x.types.Get(disasterType)
}

// Len returns the number of records across all types and years.
func (x *DisasterIndex) Len() int {
	n := 0
	for _, t := range x.types.Keys() {
		h, _ := x.types.Get(t)
		for _, y := range h.years.Keys() {
			bucket, _ := h.years.Get(y)
			n += bucket.Len()
		}
	}
	return n
}

func (x *DisasterIndex) MarshalJSON() ([]byte, error) {
	return x.types.MarshalJSON()
}

func (x *DisasterIndex) UnmarshalJSON(data []byte) error {
	types := NewOrdered[*TypeHistory]()
	if err := json.Unmarshal(data, types); err != nil {
		return err
	}
	for _, t := range types.Keys() {
		if h, _ := types.Get(t); h == nil {
			return fmt.Errorf("%w: type %q has no history", ErrMalformedDocument, t)
		}
	}
	x.types = types
	return nil
}
