package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/local/stopoverdispatch/internal/mapping"
	"github.com/local/stopoverdispatch/internal/render"
)

type mappingEntry struct {
	mapping.Recipients
	Enabled  bool       `json:"enabled"`
	LastSent *time.Time `json:"last_sent,omitempty"`
}

type templateResp struct {
	Template            render.Template `json:"template"`
	Effective           render.Template `json:"effective"`
	UnknownPlaceholders []string        `json:"unknown_placeholders"`
}

type stopoversBody struct {
	Stopovers []string `json:"stopovers"`
}

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	snap := s.cfg.Snapshot()
	out := make(map[string]mappingEntry, len(snap.Mappings))
	for code := range snap.Mappings {
		e := mappingEntry{Recipients: mapping.ResolveRecipients(code, snap.Mappings), Enabled: s.cfg.IsEnabled(code)}
		if t, ok := s.cfg.LastSent(code); ok {
			e.LastSent = &t
		}
		out[code] = e
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": out})
}

func (s *Server) handlePutMapping(w http.ResponseWriter, r *http.Request) {
	var rec mapping.Recipients
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	code, err := mapping.NormalizeCode(chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.cfg.SetRecipients(code, rec); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.ResolveRecipients(code, s.cfg.Mappings()))
}

func (s *Server) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.RemoveMapping(chi.URLParam(r, "code")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) templateResponse() templateResp {
	t := s.cfg.Template()
	unknown := render.Unknown(t)
	if unknown == nil {
		unknown = []string{}
	}
	return templateResp{Template: t, Effective: render.Effective(t), UnknownPlaceholders: unknown}
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.templateResponse())
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var t render.Template
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.cfg.SetTemplate(t); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.templateResponse())
}

func (s *Server) handleGetStopovers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stopoversBody{Stopovers: s.cfg.Stopovers()})
}

func (s *Server) handlePutStopovers(w http.ResponseWriter, r *http.Request) {
	var body stopoversBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.cfg.SetStopovers(body.Stopovers); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stopoversBody{Stopovers: s.cfg.Stopovers()})
}
