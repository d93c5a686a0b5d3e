package http

import (
	"errors"
	"net/url"
	"testing"

	"cataloging/internal/core"
	"cataloging/internal/period"
)

func TestParseListQueryDefaults(t *testing.T) {
	q := parseListQuery(url.Values{})
	if q.Period != period.Last3Days {
		t.Errorf("default period = %s, want %s", q.Period, period.Last3Days)
	}
	if q.Page != 1 || q.Limit != defaultLimit {
		t.Errorf("defaults = page %d limit %d", q.Page, q.Limit)
	}
}

func TestParseListQueryClamping(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		wantPage  int
		wantLimit int
	}{
		{"explicit", url.Values{"page": {"3"}, "limit": {"25"}}, 3, 25},
		{"zero page", url.Values{"page": {"0"}}, 1, defaultLimit},
		{"negative page", url.Values{"page": {"-4"}}, 1, defaultLimit},
		{"non-numeric", url.Values{"page": {"two"}, "limit": {"ten"}}, 1, defaultLimit},
		{"limit over max", url.Values{"limit": {"5000"}}, 1, maxLimit},
		{"zero limit", url.Values{"limit": {"0"}}, 1, defaultLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := parseListQuery(tt.values)
			if q.Page != tt.wantPage || q.Limit != tt.wantLimit {
				t.Errorf("page/limit = %d/%d, want %d/%d", q.Page, q.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestParseListQueryBounds(t *testing.T) {
	q := parseListQuery(url.Values{
		"period":    {"this-month"},
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
	})
	if q.Period != period.ThisMonth {
		t.Errorf("period = %s", q.Period)
	}
	if q.StartDate != "2024-01-01" || q.EndDate != "2024-01-31" {
		t.Errorf("bounds = %q..%q", q.StartDate, q.EndDate)
	}
}

func TestParseStatsQuery(t *testing.T) {
	p, region, err := parseStatsQuery(url.Values{})
	if err != nil {
		t.Fatalf("defaults errored: %v", err)
	}
	if p != period.ThisWeek || region != core.Combined {
		t.Errorf("defaults = %s/%s", p, region)
	}

	p, region, err = parseStatsQuery(url.Values{"period": {"last-month"}, "region": {"domestic"}})
	if err != nil || p != period.LastMonth || region != core.Domestic {
		t.Errorf("explicit = %s/%s err=%v", p, region, err)
	}

	if _, _, err := parseStatsQuery(url.Values{"region": {"mars"}}); !errors.Is(err, core.ErrInvalidRegion) {
		t.Errorf("invalid region err = %v", err)
	}
}

func TestCountTextValidation(t *testing.T) {
	v := newValidator()
	type sample struct {
		Count string `validate:"omitempty,counttext"`
	}

	for _, ok := range []string{"", "0", "7", "123"} {
		if err := v.Struct(sample{Count: ok}); err != nil {
			t.Errorf("%q should pass: %v", ok, err)
		}
	}
	for _, bad := range []string{"-1", "1.5", "abc", "1 2", " 3"} {
		if err := v.Struct(sample{Count: bad}); err == nil {
			t.Errorf("%q should fail", bad)
		}
	}
}
