package web

import (
	"net/http"
	"time"

	appLog "tzpick/internal/log"
	"tzpick/internal/model"
	"tzpick/internal/preset"
)

const presetsCacheTTL = 30 * time.Second

type presetsKey struct {
	zone  string
	today model.Date
}

// presetsCache holds a cached /api/presets response and its timestamp.
type presetsCache struct {
	resp      presetsResponse
	updatedAt time.Time
}

type presetsResponse struct {
	Zone    string      `json:"zone"`
	Today   model.Date  `json:"today"`
	Presets []presetDTO `json:"presets"`
}

// presetDTO is a JSON-friendly view of a preset. Range carries the editable
// civil form the picker applies.
type presetDTO struct {
	preset.Range
	Days  int         `json:"days"`
	Civil model.Range `json:"range"`
}

// handlePresets returns the quick-select ranges for today in a zone.
//
// GET /api/presets?zone=Asia/Tokyo
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	name := s.zoneParam(r)
	loc, err := s.conv.Location(name)
	if err != nil {
		writeZoneError(w, name, err)
		return
	}

	now := s.now()
	key := presetsKey{zone: name, today: model.DateOf(now.In(loc))}

	s.presetsMu.RLock()
	pc := s.presetsCache[key]
	s.presetsMu.RUnlock()
	if pc != nil && now.Sub(pc.updatedAt) < presetsCacheTTL {
		writeJSON(w, http.StatusOK, pc.resp)
		return
	}

	all := preset.All(now, loc)
	dtos := make([]presetDTO, 0, len(all))
	for _, p := range all {
		dtos = append(dtos, presetDTO{Range: p, Days: p.Days(), Civil: p.ToModel(name)})
	}
	resp := presetsResponse{Zone: name, Today: key.today, Presets: dtos}

	s.presetsMu.Lock()
	for k, old := range s.presetsCache {
		if now.Sub(old.updatedAt) >= presetsCacheTTL {
			delete(s.presetsCache, k)
		}
	}
	s.presetsCache[key] = &presetsCache{resp: resp, updatedAt: now}
	s.presetsMu.Unlock()

	appLog.Debug("api presets built", "zone", name, "today", key.today.String())
	writeJSON(w, http.StatusOK, resp)
}
