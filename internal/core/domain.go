package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Domestic and International are the two storable region values.
	Domestic      Region = "domestic"
	International Region = "international"
	// Combined is a report-filter sentinel meaning "no region filter".
	// It is never stored on a record.
	Combined Region = "combined"
)

type (
	// Region classifies the origin of cataloged material.
	Region string

	// Count is a non-negative integer persisted as text. The store keeps
	// count columns as TEXT with a '0' default; parsing to int happens
	// only at the aggregation step.
	Count string

	// CatalogRecord is one row of cataloging work. WDate carries a KST
	// calendar day with the time fixed to start of day; UpdateDate is
	// stamped server-side in KST on every write.
	CatalogRecord struct {
		ID                 int64
		Region             Region
		Worker             string
		WDate              time.Time
		NewSpecies         Count
		NewBookCount       Count
		RearraySpecies     Count
		RearrayBookCount   Count
		MultipartSpecies   Count
		MultipartBookCount Count
		EditBookCount      Count
		AuthorityBookCount Count
		UpdateDate         time.Time
		UpdateUser         string
	}
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRegion = errors.New("invalid region")
	ErrInvalidCount  = errors.New("count is not a non-negative integer")
	ErrEmptyWorker   = errors.New("empty worker")
	ErrZeroWorkDate  = errors.New("work date cannot be zero")
)

// Storable reports whether the region may be written to a record.
// Combined is valid only as a report filter.
func (r Region) Storable() bool {
	return r == Domestic || r == International
}

// Valid reports whether the region is one of the known values, including
// the Combined filter sentinel.
func (r Region) Valid() bool {
	return r.Storable() || r == Combined
}

func (c Count) Validate() error {
	if len(c) == 0 {
		return ErrInvalidCount
	}
	for _, ch := range c {
		if ch < '0' || ch > '9' {
			return ErrInvalidCount
		}
	}
	return nil
}

// OrZero returns the count, substituting the "0" default when absent.
func (c Count) OrZero() Count {
	if strings.TrimSpace(string(c)) == "" {
		return "0"
	}
	return c
}

// Counts returns the eight count fields in report column order.
func (rec CatalogRecord) Counts() [8]Count {
	return [8]Count{
		rec.NewSpecies, rec.NewBookCount,
		rec.RearraySpecies, rec.RearrayBookCount,
		rec.MultipartSpecies, rec.MultipartBookCount,
		rec.EditBookCount, rec.AuthorityBookCount,
	}
}

func (rec CatalogRecord) Validate() error {
	if !rec.Region.Storable() {
		return ErrInvalidRegion
	}
	if strings.TrimSpace(rec.Worker) == "" {
		return ErrEmptyWorker
	}
	if rec.WDate.IsZero() {
		return ErrZeroWorkDate
	}
	for _, c := range rec.Counts() {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultCounts replaces empty count fields with the "0" sentinel,
// matching the store's column defaults.
func (rec *CatalogRecord) DefaultCounts() {
	rec.NewSpecies = rec.NewSpecies.OrZero()
	rec.NewBookCount = rec.NewBookCount.OrZero()
	rec.RearraySpecies = rec.RearraySpecies.OrZero()
	rec.RearrayBookCount = rec.RearrayBookCount.OrZero()
	rec.MultipartSpecies = rec.MultipartSpecies.OrZero()
	rec.MultipartBookCount = rec.MultipartBookCount.OrZero()
	rec.EditBookCount = rec.EditBookCount.OrZero()
	rec.AuthorityBookCount = rec.AuthorityBookCount.OrZero()
}
