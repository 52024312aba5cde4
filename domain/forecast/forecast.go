// Package forecast provides the domain model for weather forecasts.
package forecast

import (
	"errors"
	"math/rand/v2"
	"time"
)

// Domain errors for forecast generation.
var (
	// ErrInvalidDays is returned when a negative day count is requested.
	ErrInvalidDays = errors.New("invalid forecast day count")
)

// Summaries is the fixed table of summary labels, ordered cold to hot.
var Summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Record is a single day's forecast. It is immutable once generated;
// TemperatureF is derived from TemperatureC and never stored independently.
type Record struct {
	// Date is the day the forecast applies to.
	Date time.Time `json:"date"`

	// TemperatureC is the forecast temperature in Celsius.
	TemperatureC int `json:"temperatureC"`

	// Humidity is the relative humidity percentage.
	Humidity int `json:"humidity"`

	// Summary is a label from the Summaries table.
	Summary string `json:"summary"`
}

// TemperatureF returns the temperature in Fahrenheit, derived from
// TemperatureC.
func (r Record) TemperatureF() int {
	return 32 + int(float64(r.TemperatureC)/0.5556)
}

// Generator produces an ordered sequence of forecast records.
// Implementations must be synchronous and must not retain the returned slice.
type Generator func(days int) []Record

// Generate produces days records starting tomorrow, one per day, with random
// temperatures, humidity, and summaries. It is the default Generator.
func Generate(days int) []Record {
	if days <= 0 {
		return []Record{}
	}

	records := make([]Record, days)
	start := time.Now().Truncate(24 * time.Hour)
	for i := range records {
		records[i] = Record{
			Date:         start.AddDate(0, 0, i+1),
			TemperatureC: rand.IntN(75) - 20, // -20..54, matching the classic sample range
			Humidity:     rand.IntN(81) + 20, // 20..100
			Summary:      Summaries[rand.IntN(len(Summaries))],
		}
	}
	return records
}

// Alert describes a severe-weather notice derived from a record.
type Alert struct {
	// Date is the day the alert applies to.
	Date time.Time `json:"date"`

	// Severity is "heat" or "cold".
	Severity string `json:"severity"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Alert thresholds in Celsius.
const (
	heatThresholdC = 40
	coldThresholdC = -10
)

// AlertsFor returns alerts for records with extreme temperatures, in record
// order. An empty slice means no alerts.
func AlertsFor(records []Record) []Alert {
	alerts := []Alert{}
	for _, r := range records {
		switch {
		case r.TemperatureC >= heatThresholdC:
			alerts = append(alerts, Alert{
				Date:     r.Date,
				Severity: "heat",
				Message:  "Extreme heat expected, stay hydrated",
			})
		case r.TemperatureC <= coldThresholdC:
			alerts = append(alerts, Alert{
				Date:     r.Date,
				Severity: "cold",
				Message:  "Severe cold expected, limit time outdoors",
			})
		}
	}
	return alerts
}
