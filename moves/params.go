package moves

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrConflictingParams is returned when more than one of a period, a
	// range and a past-days count is set.
	ErrConflictingParams = errors.New("only one of period, from/to range or past days may be set")
	// ErrInvalidParams is returned for a half-open range or a negative day count.
	ErrInvalidParams = errors.New("invalid daily request parameters")
)

// DailyParams selects the days a daily endpoint returns. At most one of
// Period, From/To and PastDays may be set; with none set the server picks
// its default.
type DailyParams struct {
	// Period is a day (yyyyMMdd), an ISO week (yyyy-Www) or a month (yyyyMM).
	Period string
	From   string
	To     string
	// PastDays includes today in the user's time zone.
	PastDays int

	UpdatedSince time.Time
	TrackPoints  bool
}

// Day selects a single day.
func Day(t time.Time) DailyParams {
	return DailyParams{Period: t.Format(LayoutDate)}
}

// Week selects the ISO week containing t.
func Week(t time.Time) DailyParams {
	year, week := t.ISOWeek()
	return DailyParams{Period: fmt.Sprintf("%04d-W%02d", year, week)}
}

// Month selects the calendar month containing t.
func Month(t time.Time) DailyParams {
	return DailyParams{Period: t.Format("200601")}
}

// Range selects the days from from to to, inclusive.
func Range(from, to time.Time) DailyParams {
	return DailyParams{From: from.Format(LayoutDate), To: to.Format(LayoutDate)}
}

// PastDays selects the last n days.
func PastDays(n int) DailyParams {
	return DailyParams{PastDays: n}
}

// WithUpdatedSince limits the reply to days changed after t.
func (p DailyParams) WithUpdatedSince(t time.Time) DailyParams {
	p.UpdatedSince = t
	return p
}

// WithTrackPoints asks the storyline endpoint for track points. The server
// limits such requests to seven days.
func (p DailyParams) WithTrackPoints() DailyParams {
	p.TrackPoints = true
	return p
}

func (p DailyParams) validate() error {
	if (p.From == "") != (p.To == "") {
		return fmt.Errorf("%w: from and to must be set together", ErrInvalidParams)
	}
	if p.PastDays < 0 {
		return fmt.Errorf("%w: past days must not be negative", ErrInvalidParams)
	}

	set := 0
	if p.Period != "" {
		set++
	}
	if p.From != "" {
		set++
	}
	if p.PastDays > 0 {
		set++
	}
	if set > 1 {
		return ErrConflictingParams
	}
	return nil
}

func (p DailyParams) path(base string) string {
	if p.Period == "" {
		return base
	}
	return base + "/" + url.PathEscape(p.Period)
}

func (p DailyParams) query(trackPoints bool) url.Values {
	q := url.Values{}
	if p.From != "" {
		q.Set("from", p.From)
		q.Set("to", p.To)
	}
	if p.PastDays > 0 {
		q.Set("pastDays", strconv.Itoa(p.PastDays))
	}
	if !p.UpdatedSince.IsZero() {
		q.Set("updatedSince", p.UpdatedSince.UTC().Format("20060102T150405Z"))
	}
	if trackPoints && p.TrackPoints {
		q.Set("trackPoints", "true")
	}
	return q
}
