package moves

// Profile is the /user/profile reply.
type Profile struct {
	UserID            Value `json:"userId"`
	FirstDate         Value `json:"firstDate"`
	TimeZoneID        Value `json:"timeZoneId"`
	TimeZoneOffset    Value `json:"timeZoneOffset"`
	Language          Value `json:"language"`
	Locale            Value `json:"locale"`
	FirstWeekDay      Value `json:"firstWeekDay"`
	Metric            Value `json:"metric"`
	CaloriesAvailable Value `json:"caloriesAvailable"`
	Platform          Value `json:"platform"`
}

// DailySummary is one day of /user/summary/daily.
type DailySummary struct {
	Date         Value     `json:"date"`
	CaloriesIdle Value     `json:"caloriesIdle"`
	LastUpdate   Value     `json:"lastUpdate"`
	Summaries    []Summary `json:"summary"`
}

// Summary aggregates one activity over a day.
type Summary struct {
	Activity Value `json:"activity"`
	Group    Value `json:"group"`
	Duration Value `json:"duration"`
	Distance Value `json:"distance"`
	Steps    Value `json:"steps"`
	Calories Value `json:"calories"`
}

// Storyline is one day of /user/storyline/daily or /user/activities/daily.
type Storyline struct {
	Date         Value     `json:"date"`
	CaloriesIdle Value     `json:"caloriesIdle"`
	LastUpdate   Value     `json:"lastUpdate"`
	Summaries    []Summary `json:"summary"`
	Segments     []Segment `json:"segments"`
}

// Segment is a "move" or "place" stretch of a day.
type Segment struct {
	Type       Value      `json:"type"`
	StartTime  Value      `json:"startTime"`
	EndTime    Value      `json:"endTime"`
	LastUpdate Value      `json:"lastUpdate"`
	Place      *Place     `json:"place,omitempty"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	Activity    Value        `json:"activity"`
	Group       Value        `json:"group"`
	Manual      Value        `json:"manual"`
	StartTime   Value        `json:"startTime"`
	EndTime     Value        `json:"endTime"`
	Duration    Value        `json:"duration"`
	Distance    Value        `json:"distance"`
	Steps       Value        `json:"steps"`
	Calories    Value        `json:"calories"`
	TrackPoints []TrackPoint `json:"trackPoints"`
}

type TrackPoint struct {
	Lat  Value `json:"lat"`
	Lon  Value `json:"lon"`
	Time Value `json:"time"`
}

type Place struct {
	ID                    Value     `json:"id"`
	Name                  Value     `json:"name"`
	Type                  Value     `json:"type"`
	FoursquareID          Value     `json:"foursquareId"`
	FoursquareCategoryIDs []string  `json:"foursquareCategoryIds"`
	Location              *Location `json:"location,omitempty"`
}

type Location struct {
	Lat Value `json:"lat"`
	Lon Value `json:"lon"`
}

// DailyPlaces is one day of /user/places/daily.
type DailyPlaces struct {
	Date       Value     `json:"date"`
	LastUpdate Value     `json:"lastUpdate"`
	Segments   []Segment `json:"segments"`
}
