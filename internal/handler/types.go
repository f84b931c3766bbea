package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/service"
)

// Request and response bodies mirror the schemas in spec/openapi.yaml.

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// RecordStatusRequest is the body of POST /drivers/{driverId}/statuses.
// A missing At means now; a missing Cycle means the configured default.
type RecordStatusRequest struct {
	Status domain.DutyStatus `json:"status"`
	At     *time.Time        `json:"at,omitempty"`
	Cycle  domain.CycleType  `json:"cycle,omitempty"`
}

// StatusInterval is a stored interval in API form.
type StatusInterval struct {
	Id     openapi_types.UUID `json:"id"`
	Status domain.DutyStatus  `json:"status"`
	Start  time.Time          `json:"start"`
	End    *time.Time         `json:"end,omitempty"`
}

// RecordStatusResponse is returned when a transition is accepted.
type RecordStatusResponse struct {
	Decision hos.Decision   `json:"decision"`
	Interval StatusInterval `json:"interval"`
}

// TimelineSegment is an interval clipped to the queried range.
type TimelineSegment struct {
	Interval StatusInterval `json:"interval"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Hours    float64        `json:"hours"`
}

// TimelineResponse is the body of GET /drivers/{driverId}/statuses.
type TimelineResponse struct {
	From time.Time         `json:"from"`
	To   time.Time         `json:"to"`
	Data []TimelineSegment `json:"data"`
}

// HoursResponse is the body of GET /drivers/{driverId}/hours.
type HoursResponse struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Hours hos.Hours `json:"hours"`
	Total float64   `json:"total"`
}

// CycleRemainingResponse is the body of GET /drivers/{driverId}/cycle/remaining.
type CycleRemainingResponse struct {
	Cycle     domain.CycleType `json:"cycle"`
	At        time.Time        `json:"at"`
	Remaining float64          `json:"remaining"`
}

// DailyLog is a daily log record in API form.
type DailyLog struct {
	Date              openapi_types.Date   `json:"date"`
	DrivingHours      float64              `json:"driving_hours"`
	OnDutyHours       float64              `json:"on_duty_hours"`
	OffDutyHours      float64              `json:"off_duty_hours"`
	SleeperBerthHours float64              `json:"sleeper_berth_hours"`
	MilesToday        float64              `json:"miles_today"`
	CumulativeMileage float64              `json:"cumulative_mileage"`
	TripIds           []openapi_types.UUID `json:"trip_ids"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// DailyLogListResponse is the body of GET /drivers/{driverId}/daily-logs.
type DailyLogListResponse struct {
	Data []DailyLog `json:"data"`
}

// DailyReportResponse is the body of GET /drivers/{driverId}/daily-logs/{date}/report.
type DailyReportResponse struct {
	Carrier CarrierHeader            `json:"carrier"`
	Log     DailyLog                 `json:"log"`
	Trips   []domain.DailyReportTrip `json:"trips"`
}

// CarrierHeader is the carrier block printed at the top of a log sheet.
type CarrierHeader struct {
	Name                string `json:"name"`
	MainOfficeAddress   string `json:"main_office_address"`
	HomeTerminalAddress string `json:"home_terminal_address"`
	VehicleNumber       string `json:"vehicle_number"`
	DriverName          string `json:"driver_name"`
}

// PlanTripRequest is the body of POST /drivers/{driverId}/trips.
type PlanTripRequest struct {
	Current *domain.LatLon   `json:"current"`
	Pickup  *domain.LatLon   `json:"pickup"`
	Dropoff *domain.LatLon   `json:"dropoff"`
	Start   *time.Time       `json:"start,omitempty"`
	Cycle   domain.CycleType `json:"cycle,omitempty"`
}

// PlanTripResponse is returned when a trip has been routed and stored.
type PlanTripResponse = service.PlannedTrip

// TripListResponse is the body of GET /drivers/{driverId}/trips.
type TripListResponse struct {
	Data       []domain.Trip `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// --- mapping helpers --------------------------------------------------------

func intervalToResponse(iv domain.StatusInterval) StatusInterval {
	return StatusInterval{Id: iv.ID, Status: iv.Status, Start: iv.Start, End: iv.End}
}

func segmentToResponse(s hos.Segment) TimelineSegment {
	return TimelineSegment{
		Interval: intervalToResponse(s.Interval),
		Start:    s.Start,
		End:      s.End,
		Hours:    s.Hours(),
	}
}

func dailyLogToResponse(r domain.DailyLogRecord) DailyLog {
	ids := make([]openapi_types.UUID, len(r.TripIDs))
	copy(ids, r.TripIDs)
	return DailyLog{
		Date:              openapi_types.Date{Time: r.Date},
		DrivingHours:      r.DrivingHours,
		OnDutyHours:       r.OnDutyHours,
		OffDutyHours:      r.OffDutyHours,
		SleeperBerthHours: r.SleeperBerthHours,
		MilesToday:        r.MilesToday,
		CumulativeMileage: r.CumulativeMileage,
		TripIds:           ids,
		UpdatedAt:         r.UpdatedAt,
	}
}

func carrierToResponse(c domain.Carrier) CarrierHeader {
	return CarrierHeader{
		Name:                c.Name,
		MainOfficeAddress:   c.MainOfficeAddress,
		HomeTerminalAddress: c.HomeTerminalAddress,
		VehicleNumber:       c.VehicleNumber,
		DriverName:          c.DriverName,
	}
}
