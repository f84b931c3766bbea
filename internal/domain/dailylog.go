package domain

import (
	"time"

	"github.com/google/uuid"
)

// KmToMiles converts kilometres to statute miles.
const KmToMiles = 0.621371

// DailyLogRecord is the per-day summary for one driver.
// Date is the calendar date at midnight UTC; the day boundaries used for
// hour totals come from the configured HOS time zone.
type DailyLogRecord struct {
	DriverID          uuid.UUID   `json:"driver_id"`
	Date              time.Time   `json:"date"`
	DrivingHours      float64     `json:"driving_hours"`
	OnDutyHours       float64     `json:"on_duty_hours"`
	OffDutyHours      float64     `json:"off_duty_hours"`
	SleeperBerthHours float64     `json:"sleeper_berth_hours"`
	MilesToday        float64     `json:"miles_today"`
	CumulativeMileage float64     `json:"cumulative_mileage"`
	TripIDs           []uuid.UUID `json:"trip_ids"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TotalHours is the sum of the four duty-status hour fields.
func (r DailyLogRecord) TotalHours() float64 {
	return r.DrivingHours + r.OnDutyHours + r.OffDutyHours + r.SleeperBerthHours
}

// Carrier holds the header fields printed on a driver's daily log sheet.
type Carrier struct {
	Name                string `toml:"name"`
	MainOfficeAddress   string `toml:"main_office_address"`
	HomeTerminalAddress string `toml:"home_terminal_address"`
	VehicleNumber       string `toml:"vehicle_number"`
	DriverName          string `toml:"driver_name"`
}

// DailyReportTrip is a trip line on a daily report, with distance in miles.
type DailyReportTrip struct {
	TripID        uuid.UUID  `json:"trip_id"`
	Start         time.Time  `json:"start"`
	End           *time.Time `json:"end,omitempty"`
	Miles         float64    `json:"miles"`
	DurationHours float64    `json:"duration_hours"`
}

// DailyReport is a printable log sheet: the daily record, its trips and the
// carrier header.
type DailyReport struct {
	Carrier Carrier           `json:"carrier"`
	Log     DailyLogRecord    `json:"log"`
	Trips   []DailyReportTrip `json:"trips"`
}
