package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
	"github.com/felixgeelhaar/skycast/domain/forecast"
	"github.com/felixgeelhaar/skycast/infrastructure/logging"
)

// forecastItem is the wire form of a record. Humidity is present only when
// the DetailedForecast flag is on.
type forecastItem struct {
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Humidity     *int   `json:"humidity,omitempty"`
	Summary      string `json:"summary"`
}

type alertItem struct {
	Date     string `json:"date"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type forecastResponse struct {
	Forecast []forecastItem `json:"forecast"`
	Alerts   []alertItem    `json:"alerts,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r.URL.Query().Get("days"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	records, err := s.service.Forecast(r.Context(), days)
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrInvalidDays):
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid day count"})
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
		default:
			s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "forecast unavailable"})
		}
		return
	}

	detailed := s.flags.IsEnabled(domainflags.DetailedForecast)
	response := forecastResponse{Forecast: make([]forecastItem, len(records))}
	for i, record := range records {
		item := forecastItem{
			Date:         record.Date.Format(time.RFC3339),
			TemperatureC: record.TemperatureC,
			TemperatureF: record.TemperatureF(),
			Summary:      record.Summary,
		}
		if detailed {
			humidity := record.Humidity
			item.Humidity = &humidity
		}
		response.Forecast[i] = item
	}

	if s.flags.IsEnabled(domainflags.WeatherAlerts) {
		for _, alert := range forecast.AlertsFor(records) {
			response.Alerts = append(response.Alerts, alertItem{
				Date:     alert.Date.Format(time.RFC3339),
				Severity: alert.Severity,
				Message:  alert.Message,
			})
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseDays interprets the days query parameter: absent means the default,
// non-numeric or negative is rejected, large values are capped.
func parseDays(raw string) (int, error) {
	if raw == "" {
		return DefaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("days must be an integer")
	}
	if days < 0 {
		return 0, errors.New("days must not be negative")
	}
	if days > MaxDays {
		return MaxDays, nil
	}
	return days, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.NewEvent(s.log.Warn()).
			Add(logging.Component("api")).
			Add(logging.ErrorField(err)).
			Msg("response encode failed")
	}
}
