// Package http serves the catalog JSON API.
//
// Every response body is a {"success": bool, ...} envelope; this file
// holds the envelope shapes and write helpers.
package http

import (
	"encoding/json"
	"net/http"

	"cataloging/internal/core"
	"cataloging/internal/period"
	"cataloging/internal/services"
)

// recordJSON is the wire form of a catalog record. Dates are rendered in
// KST: w_date as the bare calendar day, update_date with time of day.
type recordJSON struct {
	ID                 int64  `json:"id"`
	Region             string `json:"region"`
	Worker             string `json:"worker"`
	WDate              string `json:"w_date"`
	NewSpecies         string `json:"new_species"`
	NewBookCount       string `json:"new_bookcount"`
	RearraySpecies     string `json:"rearray_species"`
	RearrayBookCount   string `json:"rearray_bookcount"`
	MultipartSpecies   string `json:"multipart_species"`
	MultipartBookCount string `json:"multipart_bookcount"`
	EditBookCount      string `json:"edit_bookcount"`
	AuthorityBookCount string `json:"authority_bookcount"`
	UpdateDate         string `json:"update_date"`
	UpdateUser         string `json:"update_user"`
}

func toRecordJSON(rec core.CatalogRecord) recordJSON {
	return recordJSON{
		ID:                 rec.ID,
		Region:             string(rec.Region),
		Worker:             rec.Worker,
		WDate:              rec.WDate.In(period.KST).Format("2006-01-02"),
		NewSpecies:         string(rec.NewSpecies),
		NewBookCount:       string(rec.NewBookCount),
		RearraySpecies:     string(rec.RearraySpecies),
		RearrayBookCount:   string(rec.RearrayBookCount),
		MultipartSpecies:   string(rec.MultipartSpecies),
		MultipartBookCount: string(rec.MultipartBookCount),
		EditBookCount:      string(rec.EditBookCount),
		AuthorityBookCount: string(rec.AuthorityBookCount),
		UpdateDate:         rec.UpdateDate.In(period.KST).Format("2006-01-02 15:04:05"),
		UpdateUser:         rec.UpdateUser,
	}
}

func toRecordJSONs(recs []core.CatalogRecord) []recordJSON {
	out := make([]recordJSON, len(recs))
	for i, rec := range recs {
		out[i] = toRecordJSON(rec)
	}
	return out
}

type pagination struct {
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

type listResponse struct {
	Success    bool         `json:"success"`
	Data       []recordJSON `json:"data"`
	Pagination pagination   `json:"pagination"`
}

func toListResponse(res services.ListResult) listResponse {
	return listResponse{
		Success: true,
		Data:    toRecordJSONs(res.Records),
		Pagination: pagination{
			TotalCount:  res.TotalCount,
			TotalPages:  res.TotalPages,
			CurrentPage: res.CurrentPage,
			Limit:       res.Limit,
		},
	}
}

type dateRangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type statsResponse struct {
	Success   bool             `json:"success"`
	Stats     core.CountTotals `json:"stats"`
	RawData   []recordJSON     `json:"rawData"`
	DateRange dateRangeJSON    `json:"dateRange"`
}

func toStatsResponse(rep services.Report) statsResponse {
	return statsResponse{
		Success: true,
		Stats:   rep.Totals,
		RawData: toRecordJSONs(rep.Records),
		DateRange: dateRangeJSON{
			Start: rep.Range.DisplayStart(),
			End:   rep.Range.DisplayEnd(),
		},
	}
}

type recordResponse struct {
	Success bool       `json:"success"`
	Data    recordJSON `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Success: false, Message: msg})
}
