package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// BuildDailyLog handles POST /drivers/{driverId}/daily-logs/{date}.
// It recomputes the record for the date and repairs the mileage chain of
// every later record.
func (s *Server) BuildDailyLog(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	date, err := dateParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rec, err := s.logs.BuildDailyLog(r.Context(), driverID, date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyLogToResponse(rec))
}

// GetDailyLog handles GET /drivers/{driverId}/daily-logs/{date}.
func (s *Server) GetDailyLog(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	date, err := dateParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rec, err := s.logs.GetDailyLog(r.Context(), driverID, date)
	if err != nil {
		s.writeError(w, r, err, "daily log not found")
		return
	}
	writeJSON(w, http.StatusOK, dailyLogToResponse(rec))
}

// ListDailyLogs handles GET /drivers/{driverId}/daily-logs?from=&to=.
// from and to are calendar dates, both inclusive.
func (s *Server) ListDailyLogs(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var from, to openapi_types.Date
	if err := queryParam(r, "from", true, &from); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := queryParam(r, "to", true, &to); err != nil {
		badRequest(w, err.Error())
		return
	}

	recs, err := s.logs.ListDailyLogs(r.Context(), driverID, from.Time, to.Time)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	data := make([]DailyLog, len(recs))
	for i, rec := range recs {
		data[i] = dailyLogToResponse(rec)
	}
	writeJSON(w, http.StatusOK, DailyLogListResponse{Data: data})
}

// GetDailyReport handles GET /drivers/{driverId}/daily-logs/{date}/report.
func (s *Server) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	driverID, err := driverIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	date, err := dateParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rep, err := s.logs.Report(r.Context(), driverID, date)
	if err != nil {
		s.writeError(w, r, err, "daily log not found")
		return
	}
	writeJSON(w, http.StatusOK, DailyReportResponse{
		Carrier: carrierToResponse(rep.Carrier),
		Log:     dailyLogToResponse(rep.Log),
		Trips:   rep.Trips,
	})
}
