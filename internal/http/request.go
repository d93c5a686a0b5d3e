package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cataloging/internal/core"
	"cataloging/internal/period"
	"cataloging/internal/services"

	"github.com/go-playground/validator/v10"
)

const (
	defaultListPeriod  = period.Last3Days
	defaultStatsPeriod = period.ThisWeek
	defaultLimit       = 10
	maxLimit           = 100
)

// recordPayload is the create/update request body. Counts arrive as
// numeric text and may be omitted; the service fills in the "0" default.
type recordPayload struct {
	Region             string `json:"region" validate:"required,oneof=domestic international"`
	Worker             string `json:"worker" validate:"required,max=100"`
	WDate              string `json:"w_date" validate:"required,datetime=2006-01-02"`
	NewSpecies         string `json:"new_species" validate:"omitempty,counttext"`
	NewBookCount       string `json:"new_bookcount" validate:"omitempty,counttext"`
	RearraySpecies     string `json:"rearray_species" validate:"omitempty,counttext"`
	RearrayBookCount   string `json:"rearray_bookcount" validate:"omitempty,counttext"`
	MultipartSpecies   string `json:"multipart_species" validate:"omitempty,counttext"`
	MultipartBookCount string `json:"multipart_bookcount" validate:"omitempty,counttext"`
	EditBookCount      string `json:"edit_bookcount" validate:"omitempty,counttext"`
	AuthorityBookCount string `json:"authority_bookcount" validate:"omitempty,counttext"`
	UpdateUser         string `json:"update_user" validate:"max=100"`
}

type loginPayload struct {
	Password string `json:"password" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// counttext accepts only unsigned decimal digits, matching the
	// TEXT count columns.
	_ = v.RegisterValidation("counttext", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, ch := range s {
			if ch < '0' || ch > '9' {
				return false
			}
		}
		return len(s) > 0
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// toRecord converts a validated payload to a domain record. The work
// date string has already passed datetime validation.
func (p recordPayload) toRecord() core.CatalogRecord {
	wDate, _ := time.ParseInLocation("2006-01-02", p.WDate, period.KST)
	return core.CatalogRecord{
		Region:             core.Region(p.Region),
		Worker:             strings.TrimSpace(p.Worker),
		WDate:              wDate,
		NewSpecies:         core.Count(p.NewSpecies),
		NewBookCount:       core.Count(p.NewBookCount),
		RearraySpecies:     core.Count(p.RearraySpecies),
		RearrayBookCount:   core.Count(p.RearrayBookCount),
		MultipartSpecies:   core.Count(p.MultipartSpecies),
		MultipartBookCount: core.Count(p.MultipartBookCount),
		EditBookCount:      core.Count(p.EditBookCount),
		AuthorityBookCount: core.Count(p.AuthorityBookCount),
		UpdateUser:         strings.TrimSpace(p.UpdateUser),
	}
}

// parseListQuery reads pagination and range parameters. Out-of-range
// page and limit values are clamped, not rejected.
func parseListQuery(query url.Values) services.ListQuery {
	q := services.ListQuery{
		Period:    defaultListPeriod,
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
		Page:      1,
		Limit:     defaultLimit,
	}

	if v := strings.TrimSpace(query.Get("period")); v != "" {
		q.Period = period.Period(v)
	}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			q.Page = p
		}
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			if l > maxLimit {
				l = maxLimit
			}
			q.Limit = l
		}
	}
	return q
}

// parseStatsQuery reads the report parameters.
func parseStatsQuery(query url.Values) (period.Period, core.Region, error) {
	p := defaultStatsPeriod
	if v := strings.TrimSpace(query.Get("period")); v != "" {
		p = period.Period(v)
	}

	region := core.Combined
	if v := strings.TrimSpace(query.Get("region")); v != "" {
		region = core.Region(v)
	}
	if !region.Valid() {
		return p, region, core.ErrInvalidRegion
	}
	return p, region, nil
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid record id %q", r.PathValue("id"))
	}
	return id, nil
}
