package core

import "strconv"

// CountTotals holds the per-column sums of a date-bounded report.
type CountTotals struct {
	NewSpecies         int64 `json:"new_species_sum"`
	NewBookCount       int64 `json:"new_bookcount_sum"`
	RearraySpecies     int64 `json:"rearray_species_sum"`
	RearrayBookCount   int64 `json:"rearray_bookcount_sum"`
	MultipartSpecies   int64 `json:"multipart_species_sum"`
	MultipartBookCount int64 `json:"multipart_bookcount_sum"`
	EditBookCount      int64 `json:"edit_bookcount_sum"`
	AuthorityBookCount int64 `json:"authority_bookcount_sum"`
}

// Add accumulates a record's counts into the totals. A count that fails to
// parse is reported instead of being coerced to zero.
func (t *CountTotals) Add(rec CatalogRecord) error {
	counts := rec.Counts()
	dst := [8]*int64{
		&t.NewSpecies, &t.NewBookCount,
		&t.RearraySpecies, &t.RearrayBookCount,
		&t.MultipartSpecies, &t.MultipartBookCount,
		&t.EditBookCount, &t.AuthorityBookCount,
	}
	for i, c := range counts {
		n, err := strconv.ParseInt(string(c), 10, 64)
		if err != nil {
			return ErrInvalidCount
		}
		*dst[i] += n
	}
	return nil
}
