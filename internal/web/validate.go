package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tzpick/internal/constraint"
	appLog "tzpick/internal/log"
	"tzpick/internal/model"
)

// constraintsDTO is the wire form of constraint.Constraints. Durations
// travel as milliseconds and weekdays as 0-6 with 0 = Sunday.
type constraintsDTO struct {
	MinDate       *model.Date  `json:"min_date,omitempty"`
	MaxDate       *model.Date  `json:"max_date,omitempty"`
	BlackoutDates []model.Date `json:"blackout_dates"`
	MinDuration   *int64       `json:"min_duration_ms,omitempty"`
	MaxDuration   *int64       `json:"max_duration_ms,omitempty"`
	DisabledDays  []int        `json:"disabled_days"`
}

func toConstraintsDTO(c constraint.Constraints) constraintsDTO {
	out := constraintsDTO{
		MinDate:       c.MinDate,
		MaxDate:       c.MaxDate,
		BlackoutDates: c.BlackoutDates,
		DisabledDays:  make([]int, 0, len(c.DisabledDays)),
	}
	if out.BlackoutDates == nil {
		out.BlackoutDates = []model.Date{}
	}
	if c.MinDuration != nil {
		ms := c.MinDuration.Milliseconds()
		out.MinDuration = &ms
	}
	if c.MaxDuration != nil {
		ms := c.MaxDuration.Milliseconds()
		out.MaxDuration = &ms
	}
	for _, wd := range c.DisabledDays {
		out.DisabledDays = append(out.DisabledDays, int(wd))
	}
	return out
}

func (d constraintsDTO) toConstraints() (constraint.Constraints, error) {
	c := constraint.Constraints{
		MinDate:       d.MinDate,
		MaxDate:       d.MaxDate,
		BlackoutDates: d.BlackoutDates,
	}
	if d.MinDuration != nil {
		if *d.MinDuration < 0 {
			return c, errors.New("min_duration_ms must not be negative")
		}
		c.MinDuration = constraint.Ptr(time.Duration(*d.MinDuration) * time.Millisecond)
	}
	if d.MaxDuration != nil {
		if *d.MaxDuration < 0 {
			return c, errors.New("max_duration_ms must not be negative")
		}
		c.MaxDuration = constraint.Ptr(time.Duration(*d.MaxDuration) * time.Millisecond)
	}
	for _, n := range d.DisabledDays {
		if n < 0 || n > 6 {
			return c, fmt.Errorf("disabled_days: %d out of range 0-6", n)
		}
		c.DisabledDays = append(c.DisabledDays, time.Weekday(n))
	}
	return c, nil
}

type constraintsResponse struct {
	constraintsDTO
	// Timezone and WeekStart tell the calendar grid how to lay out days.
	Timezone    string     `json:"timezone,omitempty"`
	WeekStart   string     `json:"week_start,omitempty"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// handleConstraints returns the server-side constraints, blackout feeds
// and rules included.
//
// GET /api/constraints
func (s *Server) handleConstraints(w http.ResponseWriter, _ *http.Request) {
	c, err := s.constraints()
	if err != nil {
		appLog.Error("api constraints: build failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build constraints")
		return
	}
	resp := constraintsResponse{constraintsDTO: toConstraintsDTO(c)}
	if s.cfg != nil {
		resp.Timezone = s.cfg.Timezone
		resp.WeekStart = s.cfg.WeekStart
	}
	if s.store != nil {
		if at := s.store.LastRefresh(); !at.IsZero() {
			resp.RefreshedAt = &at
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestConstraints picks the constraints sent with a request, or the
// server's own when none were sent.
func (s *Server) requestConstraints(sent *constraintsDTO) (constraint.Constraints, int, error) {
	if sent != nil {
		c, err := sent.toConstraints()
		if err != nil {
			return c, http.StatusBadRequest, err
		}
		return c, 0, nil
	}
	c, err := s.constraints()
	if err != nil {
		appLog.Error("api validate: build constraints failed", err)
		return c, http.StatusInternalServerError, errors.New("failed to build constraints")
	}
	return c, 0, nil
}

type validateDateRequest struct {
	Date        model.Civil     `json:"date"`
	Constraints *constraintsDTO `json:"constraints,omitempty"`
}

// handleValidateDate checks one civil date-time.
//
// POST /api/validate/date {"date":"2025-01-15T09:00"}
func (s *Server) handleValidateDate(w http.ResponseWriter, r *http.Request) {
	var req validateDateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, status, err := s.requestConstraints(req.Constraints)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, constraint.ValidateDate(req.Date, c))
}

type validateRangeRequest struct {
	Range       model.Range     `json:"range"`
	Constraints *constraintsDTO `json:"constraints,omitempty"`
}

type validateRangeResponse struct {
	constraint.RangeResult
	Zone string `json:"zone"`
	// ElapsedMs is the real time between the endpoints through the zone's
	// offsets; it differs from the naive difference across DST changes.
	ElapsedMs *int64 `json:"elapsed_ms,omitempty"`
}

// handleValidateRange checks a full range. A range without a zone is
// read in the configured zone.
//
// POST /api/validate/range {"range":{"start":{...},"end":{...},"zone":"..."}}
func (s *Server) handleValidateRange(w http.ResponseWriter, r *http.Request) {
	var req validateRangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Range.Zone == "" {
		req.Range.Zone = s.defaultZone()
	}
	if _, err := s.conv.Location(req.Range.Zone); err != nil {
		writeZoneError(w, req.Range.Zone, err)
		return
	}
	c, status, err := s.requestConstraints(req.Constraints)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	res := constraint.ValidateRange(req.Range, c)
	if res.Errors == nil {
		res.Errors = []string{}
	}
	resp := validateRangeResponse{RangeResult: res, Zone: req.Range.Zone}

	start, okStart := req.Range.Start.Combined()
	end, okEnd := req.Range.End.Combined()
	if okStart && okEnd {
		elapsed, err := s.conv.Elapsed(start, end, req.Range.Zone)
		if err != nil {
			writeZoneError(w, req.Range.Zone, err)
			return
		}
		ms := elapsed.Milliseconds()
		resp.ElapsedMs = &ms
	}
	writeJSON(w, http.StatusOK, resp)
}
