package moves

import (
	"fmt"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/dvcrn/moves-go/internal/jsonx"
)

func val(obj jsonx.Object, key string) Value {
	return Value(jsonx.String(obj, key))
}

// decodeObject parses a body whose top level must be an object.
func decodeObject(op string, body []byte) (jsonx.Object, error) {
	v, err := jsonx.Decode(body)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("failed to parse response: %w", err))
	}
	obj, ok := v.(jsonx.Object)
	if !ok {
		return nil, &apierror.Error{
			Kind: apierror.InvalidResponse,
			Op:   op,
			Body: string(body),
			Err:  fmt.Errorf("expected a JSON object, got %s", shapeOf(v)),
		}
	}
	return obj, nil
}

// decodeList parses a body whose top level must be an array and returns its
// object elements.
func decodeList(op string, body []byte) ([]jsonx.Object, error) {
	v, err := jsonx.Decode(body)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("failed to parse response: %w", err))
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &apierror.Error{
			Kind: apierror.InvalidResponse,
			Op:   op,
			Body: string(body),
			Err:  fmt.Errorf("expected a JSON array, got %s", shapeOf(v)),
		}
	}
	return jsonx.ObjectsOf(arr), nil
}

func shapeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case jsonx.Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

func parseProfile(obj jsonx.Object) *Profile {
	profile := jsonx.Obj(obj, "profile")
	tz := jsonx.Obj(profile, "currentTimeZone")
	loc := jsonx.Obj(profile, "localization")
	return &Profile{
		UserID:            val(obj, "userId"),
		FirstDate:         val(profile, "firstDate"),
		TimeZoneID:        val(tz, "id"),
		TimeZoneOffset:    val(tz, "offset"),
		Language:          val(loc, "language"),
		Locale:            val(loc, "locale"),
		FirstWeekDay:      val(loc, "firstWeekDay"),
		Metric:            val(loc, "metric"),
		CaloriesAvailable: val(profile, "caloriesAvailable"),
		Platform:          val(profile, "platform"),
	}
}

func parseDailySummary(obj jsonx.Object) DailySummary {
	return DailySummary{
		Date:         val(obj, "date"),
		CaloriesIdle: val(obj, "caloriesIdle"),
		LastUpdate:   val(obj, "lastUpdate"),
		Summaries:    parseSummaries(obj),
	}
}

func parseSummaries(obj jsonx.Object) []Summary {
	items := jsonx.Objects(obj, "summary")
	out := make([]Summary, 0, len(items))
	for _, s := range items {
		out = append(out, Summary{
			Activity: val(s, "activity"),
			Group:    val(s, "group"),
			Duration: val(s, "duration"),
			Distance: val(s, "distance"),
			Steps:    val(s, "steps"),
			Calories: val(s, "calories"),
		})
	}
	return out
}

func parseStoryline(obj jsonx.Object) Storyline {
	return Storyline{
		Date:         val(obj, "date"),
		CaloriesIdle: val(obj, "caloriesIdle"),
		LastUpdate:   val(obj, "lastUpdate"),
		Summaries:    parseSummaries(obj),
		Segments:     parseSegments(obj),
	}
}

func parseDailyPlaces(obj jsonx.Object) DailyPlaces {
	return DailyPlaces{
		Date:       val(obj, "date"),
		LastUpdate: val(obj, "lastUpdate"),
		Segments:   parseSegments(obj),
	}
}

func parseSegments(obj jsonx.Object) []Segment {
	items := jsonx.Objects(obj, "segments")
	out := make([]Segment, 0, len(items))
	for _, s := range items {
		out = append(out, Segment{
			Type:       val(s, "type"),
			StartTime:  val(s, "startTime"),
			EndTime:    val(s, "endTime"),
			LastUpdate: val(s, "lastUpdate"),
			Place:      parsePlace(jsonx.Obj(s, "place")),
			Activities: parseActivities(s),
		})
	}
	return out
}

func parseActivities(obj jsonx.Object) []Activity {
	items := jsonx.Objects(obj, "activities")
	out := make([]Activity, 0, len(items))
	for _, a := range items {
		points := jsonx.Objects(a, "trackPoints")
		track := make([]TrackPoint, 0, len(points))
		for _, p := range points {
			track = append(track, TrackPoint{
				Lat:  val(p, "lat"),
				Lon:  val(p, "lon"),
				Time: val(p, "time"),
			})
		}
		out = append(out, Activity{
			Activity:    val(a, "activity"),
			Group:       val(a, "group"),
			Manual:      val(a, "manual"),
			StartTime:   val(a, "startTime"),
			EndTime:     val(a, "endTime"),
			Duration:    val(a, "duration"),
			Distance:    val(a, "distance"),
			Steps:       val(a, "steps"),
			Calories:    val(a, "calories"),
			TrackPoints: track,
		})
	}
	return out
}

func parsePlace(obj jsonx.Object) *Place {
	if obj == nil {
		return nil
	}
	p := &Place{
		ID:                    val(obj, "id"),
		Name:                  val(obj, "name"),
		Type:                  val(obj, "type"),
		FoursquareID:          val(obj, "foursquareId"),
		FoursquareCategoryIDs: jsonx.Strings(obj, "foursquareCategoryIds"),
	}
	if loc := jsonx.Obj(obj, "location"); loc != nil {
		p.Location = &Location{Lat: val(loc, "lat"), Lon: val(loc, "lon")}
	}
	return p
}
