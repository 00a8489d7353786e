package web

import (
	"net/http"
	"time"

	"tzpick/internal/model"
	"tzpick/internal/zone"
)

type zonesResponse struct {
	Zones   []zone.Entry `json:"zones"`
	Default string       `json:"default"`
}

// handleZones lists the cataloged zones in display order.
//
// GET /api/zones
func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, zonesResponse{
		Zones:   zone.Entries(),
		Default: s.defaultZone(),
	})
}

type offsetResponse struct {
	Zone string    `json:"zone"`
	At   time.Time `json:"at"`
	zone.Offset
}

// handleOffset reports the offset in effect at an instant.
//
// GET /api/offset?zone=America/New_York&at=2025-07-01T12:00:00Z
func (s *Server) handleOffset(w http.ResponseWriter, r *http.Request) {
	name := s.zoneParam(r)
	at, err := s.instantParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	off, err := s.conv.Offset(at, name)
	if err != nil {
		writeZoneError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, offsetResponse{Zone: name, At: at.UTC(), Offset: off})
}

type civilResponse struct {
	Zone  string      `json:"zone"`
	At    time.Time   `json:"at"`
	Civil model.Civil `json:"civil"`
}

// handleCivil converts an instant to the wall-clock reading in a zone.
//
// GET /api/civil?zone=Asia/Tokyo&at=2025-01-01T00:00:00Z
func (s *Server) handleCivil(w http.ResponseWriter, r *http.Request) {
	name := s.zoneParam(r)
	at, err := s.instantParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	civil, err := s.conv.InstantToCivil(at, name)
	if err != nil {
		writeZoneError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, civilResponse{Zone: name, At: at.UTC(), Civil: civil})
}

type instantResponse struct {
	Zone       string      `json:"zone"`
	Civil      model.Civil `json:"civil"`
	Instant    time.Time   `json:"instant"`
	Kind       zone.Kind   `json:"kind"`
	Candidates []time.Time `json:"candidates"`
}

// handleInstant converts a wall-clock value to an instant. Kind and
// Candidates tell the UI when the value falls in a DST gap or overlap.
//
// GET /api/instant?zone=America/New_York&civil=2025-03-09T02:30
func (s *Server) handleInstant(w http.ResponseWriter, r *http.Request) {
	name := s.zoneParam(r)
	civil, err := civilParam(r.URL.Query().Get("civil"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.conv.Classify(civil, name)
	if err != nil {
		writeZoneError(w, name, err)
		return
	}
	candidates := make([]time.Time, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		candidates = append(candidates, c.UTC())
	}
	writeJSON(w, http.StatusOK, instantResponse{
		Zone:       name,
		Civil:      civil,
		Instant:    res.Resolved.UTC(),
		Kind:       res.Kind,
		Candidates: candidates,
	})
}

type formatResponse struct {
	Zone      string     `json:"zone"`
	Style     zone.Style `json:"style"`
	Formatted string     `json:"formatted"`
}

// handleFormat renders an instant for display.
//
// GET /api/format?zone=Europe/Paris&at=...&style=long
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	name := s.zoneParam(r)
	at, err := s.instantParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	style, err := zone.ParseStyle(r.URL.Query().Get("style"))
	if err != nil {
		writeZoneError(w, name, err)
		return
	}
	out, err := s.conv.FormatInTimezone(at, name, style)
	if err != nil {
		writeZoneError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, formatResponse{Zone: name, Style: style, Formatted: out})
}

type transitionsResponse struct {
	Zone        string            `json:"zone"`
	Year        int               `json:"year"`
	Transitions []zone.Transition `json:"transitions"`
}

// handleTransitions lists offset changes within a calendar year (UTC).
//
// GET /api/transitions?zone=Europe/London&year=2025
func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	name := s.zoneParam(r)
	year := parseIntDefault(r.URL.Query().Get("year"), s.now().Year())
	if year < 1900 || year > 2200 {
		writeError(w, http.StatusBadRequest, "year out of range")
		return
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	list, err := s.conv.Transitions(name, from, from.AddDate(1, 0, 0))
	if err != nil {
		writeZoneError(w, name, err)
		return
	}
	if list == nil {
		list = []zone.Transition{}
	}
	writeJSON(w, http.StatusOK, transitionsResponse{Zone: name, Year: year, Transitions: list})
}
