// In file: internal/assistant/day.go

// Package assistant turns a free-text weather question into a summary: it
// decomposes the question into (location, date) sub-queries, routes each date
// to the historical, current or forecast data path, and asks the language
// model to summarise the collected report.
package assistant

import (
	"time"

	"cloud.google.com/go/civil"
)

// Day is "today" as captured once at the start of a request.
type Day struct {
	Date    civil.Date
	Weekday time.Weekday
}

// DayOf returns the calendar day of t in loc. A nil loc means UTC.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return Day{Date: civil.DateOf(t), Weekday: t.Weekday()}
}

// Path names the data source a sub-query is routed to.
type Path string

const (
	PathHistorical Path = "historical"
	PathCurrent    Path = "current"
	PathForecast   Path = "forecast"
)

// Classify routes a date relative to today.
func Classify(date, today civil.Date) Path {
	switch {
	case date.Before(today):
		return PathHistorical
	case date.After(today):
		return PathForecast
	default:
		return PathCurrent
	}
}
