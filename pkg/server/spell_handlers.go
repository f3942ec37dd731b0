// Copyright 2025 Certen Protocol

package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/certen/contract-coordinator/pkg/resolver"
)

// SpellHandlers serves the effect-resolver entry path.
type SpellHandlers struct {
	resolver *resolver.Resolver
	logger   *log.Logger
}

// NewSpellHandlers creates the spell handler group.
func NewSpellHandlers(r *resolver.Resolver, logger *log.Logger) *SpellHandlers {
	return &SpellHandlers{resolver: r, logger: logger}
}

type spellRequest struct {
	Components      map[string]any `json:"components"`
	Timestamp       string         `json:"timestamp"`
	CasterSignature string         `json:"casterSignature"`
	CasterUUID      string         `json:"casterUUID"`
	CasterPubKey    string         `json:"casterPubKey"`
}

// HandleDispatch serves POST /magic/spell/:name. A dispatch failure does not
// map to a normal HTTP status; per the resolver's contract it is reported as
// success:false with code 900 inside an otherwise-200 response.
func (h *SpellHandlers) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/magic/spell/")
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "spell name is required")
		return
	}

	var req spellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.resolver.Dispatch(r.Context(), resolver.Spell{
		Name:            name,
		Components:      req.Components,
		Timestamp:       req.Timestamp,
		CasterSignature: req.CasterSignature,
		CasterUUID:      req.CasterUUID,
		CasterPubKey:    req.CasterPubKey,
	})
	if err != nil {
		writeSpellFailure(w, h.logger, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}
