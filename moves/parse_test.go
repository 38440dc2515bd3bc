package moves

import (
	"testing"
	"time"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseStorylines(t *testing.T, body string) []Storyline {
	t.Helper()
	days, err := decodeList("test", []byte(body))
	require.NoError(t, err)
	out := make([]Storyline, 0, len(days))
	for _, d := range days {
		out = append(out, parseStoryline(d))
	}
	return out
}

func TestParseIsIdempotent(t *testing.T) {
	assert.Equal(t, parseStorylines(t, storylineBody), parseStorylines(t, storylineBody))
}

func TestParseSkipsNonObjectDays(t *testing.T) {
	days := parseStorylines(t, `[1, {"date": "20260301"}, "x", null, [{"date": "20260302"}]]`)
	require.Len(t, days, 1)
	assert.Equal(t, Value("20260301"), days[0].Date)
	assert.NotNil(t, days[0].Summaries)
	assert.NotNil(t, days[0].Segments)
}

func TestParseScalarLeaves(t *testing.T) {
	days := parseStorylines(t, `[{"date": 20260301, "caloriesIdle": null, "lastUpdate": {"nested": true}, "summary": "nope"}]`)
	require.Len(t, days, 1)
	assert.Equal(t, Value("20260301"), days[0].Date)
	assert.True(t, days[0].CaloriesIdle.IsZero())
	assert.True(t, days[0].LastUpdate.IsZero())
	assert.Empty(t, days[0].Summaries)
}

func TestParseProfileWithoutSections(t *testing.T) {
	obj, err := decodeObject("test", []byte(`{"userId": "u1"}`))
	require.NoError(t, err)
	p := parseProfile(obj)
	assert.Equal(t, Value("u1"), p.UserID)
	assert.True(t, p.TimeZoneID.IsZero())
	assert.True(t, p.Metric.IsZero())
}

func TestDecodeShapeErrors(t *testing.T) {
	_, err := decodeList("op", []byte(`{"a":1}`))
	assert.Equal(t, apierror.InvalidResponse, apierror.KindOf(err))

	_, err = decodeObject("op", []byte(`"text"`))
	assert.Equal(t, apierror.InvalidResponse, apierror.KindOf(err))

	_, err = decodeList("op", []byte(`[1,`))
	assert.Equal(t, apierror.UnexpectedError, apierror.KindOf(err))

	_, err = decodeList("op", []byte(`[] trailing`))
	assert.Equal(t, apierror.UnexpectedError, apierror.KindOf(err))
}

func TestValueConversions(t *testing.T) {
	assert.Equal(t, int64(42), Value("42").Int64(-1))
	assert.Equal(t, int64(42), Value("42.9").Int64(-1))
	assert.Equal(t, int64(-1), Value("").Int64(-1))
	assert.Equal(t, int64(-1), Value("abc").Int64(-1))

	assert.InDelta(t, 3.5, Value("3.5").Float64(0), 1e-9)
	assert.InDelta(t, 1.0, Value("x").Float64(1), 1e-9)

	assert.True(t, Value("true").Bool(false))
	assert.False(t, Value("false").Bool(true))
	assert.True(t, Value("").Bool(true))

	def := time.Unix(0, 0).UTC()
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Value("20260301").Time(LayoutDate, def))
	assert.Equal(t, def, Value("yesterday").Time(LayoutDate, def))

	assert.Equal(t, 90*time.Second, Value("90").Seconds(0))
	assert.Equal(t, time.Minute, Value("").Seconds(time.Minute))
	assert.Equal(t, "abc", Value("abc").String())
}
