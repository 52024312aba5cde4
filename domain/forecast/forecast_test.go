package forecast

import (
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("produces requested number of records", func(t *testing.T) {
		t.Parallel()

		for _, days := range []int{1, 5, 14} {
			records := Generate(days)
			if len(records) != days {
				t.Errorf("Generate(%d) produced %d records", days, len(records))
			}
		}
	})

	t.Run("zero days produces empty slice", func(t *testing.T) {
		t.Parallel()

		records := Generate(0)
		if records == nil {
			t.Fatal("Generate(0) should return an empty slice, not nil")
		}
		if len(records) != 0 {
			t.Errorf("Generate(0) produced %d records, want 0", len(records))
		}
	})

	t.Run("records are ordered by date", func(t *testing.T) {
		t.Parallel()

		records := Generate(7)
		for i := 1; i < len(records); i++ {
			if !records[i].Date.After(records[i-1].Date) {
				t.Errorf("record %d date %v not after record %d date %v",
					i, records[i].Date, i-1, records[i-1].Date)
			}
		}
	})

	t.Run("fields are within range", func(t *testing.T) {
		t.Parallel()

		for _, r := range Generate(50) {
			if r.TemperatureC < -20 || r.TemperatureC > 54 {
				t.Errorf("TemperatureC = %d, out of range", r.TemperatureC)
			}
			if r.Humidity < 20 || r.Humidity > 100 {
				t.Errorf("Humidity = %d, out of range", r.Humidity)
			}
			if r.Summary == "" {
				t.Error("Summary should not be empty")
			}
		}
	})
}

func TestRecord_TemperatureF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		celsius    int
		fahrenheit int
	}{
		{0, 32},
		{20, 67},
		{-20, -3},
		{54, 129},
	}

	for _, tt := range tests {
		r := Record{TemperatureC: tt.celsius}
		if got := r.TemperatureF(); got != tt.fahrenheit {
			t.Errorf("TemperatureF() for %dC = %d, want %d", tt.celsius, got, tt.fahrenheit)
		}
	}
}

func TestAlertsFor(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		records   []Record
		wantCount int
		wantFirst string
	}{
		{
			name:      "no extremes",
			records:   []Record{{Date: day, TemperatureC: 20}},
			wantCount: 0,
		},
		{
			name:      "heat alert",
			records:   []Record{{Date: day, TemperatureC: 45}},
			wantCount: 1,
			wantFirst: "heat",
		},
		{
			name:      "cold alert",
			records:   []Record{{Date: day, TemperatureC: -15}},
			wantCount: 1,
			wantFirst: "cold",
		},
		{
			name: "mixed records",
			records: []Record{
				{Date: day, TemperatureC: 41},
				{Date: day.AddDate(0, 0, 1), TemperatureC: 10},
				{Date: day.AddDate(0, 0, 2), TemperatureC: -10},
			},
			wantCount: 2,
			wantFirst: "heat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			alerts := AlertsFor(tt.records)
			if len(alerts) != tt.wantCount {
				t.Fatalf("AlertsFor() produced %d alerts, want %d", len(alerts), tt.wantCount)
			}
			if tt.wantCount > 0 && alerts[0].Severity != tt.wantFirst {
				t.Errorf("first alert severity = %s, want %s", alerts[0].Severity, tt.wantFirst)
			}
		})
	}
}
