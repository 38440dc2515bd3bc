package moves

import (
	"context"
)

const (
	pathProfile    = "/user/profile"
	pathSummary    = "/user/summary/daily"
	pathStoryline  = "/user/storyline/daily"
	pathActivities = "/user/activities/daily"
	pathPlaces     = "/user/places/daily"
)

// Profile returns the user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	body, err := c.get(ctx, pathProfile, nil)
	if err != nil {
		return nil, err
	}
	obj, err := decodeObject("GET "+pathProfile, body)
	if err != nil {
		return nil, err
	}
	return parseProfile(obj), nil
}

// DailySummaries returns per-day activity totals.
func (c *Client) DailySummaries(ctx context.Context, p DailyParams) ([]DailySummary, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	path := p.path(pathSummary)
	body, err := c.get(ctx, path, p.query(false))
	if err != nil {
		return nil, err
	}
	days, err := decodeList("GET "+path, body)
	if err != nil {
		return nil, err
	}
	out := make([]DailySummary, 0, len(days))
	for _, d := range days {
		out = append(out, parseDailySummary(d))
	}
	return out, nil
}

// DailyStorylines returns each day's segments. Set TrackPoints to include
// the GPS trace of every activity.
func (c *Client) DailyStorylines(ctx context.Context, p DailyParams) ([]Storyline, error) {
	return c.storylines(ctx, pathStoryline, p, true)
}

// DailyActivities returns each day's activity segments.
func (c *Client) DailyActivities(ctx context.Context, p DailyParams) ([]Storyline, error) {
	return c.storylines(ctx, pathActivities, p, false)
}

func (c *Client) storylines(ctx context.Context, base string, p DailyParams, trackPoints bool) ([]Storyline, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	path := p.path(base)
	body, err := c.get(ctx, path, p.query(trackPoints))
	if err != nil {
		return nil, err
	}
	days, err := decodeList("GET "+path, body)
	if err != nil {
		return nil, err
	}
	out := make([]Storyline, 0, len(days))
	for _, d := range days {
		out = append(out, parseStoryline(d))
	}
	return out, nil
}

// DailyPlaces returns the places visited each day.
func (c *Client) DailyPlaces(ctx context.Context, p DailyParams) ([]DailyPlaces, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	path := p.path(pathPlaces)
	body, err := c.get(ctx, path, p.query(false))
	if err != nil {
		return nil, err
	}
	days, err := decodeList("GET "+path, body)
	if err != nil {
		return nil, err
	}
	out := make([]DailyPlaces, 0, len(days))
	for _, d := range days {
		out = append(out, parseDailyPlaces(d))
	}
	return out, nil
}
