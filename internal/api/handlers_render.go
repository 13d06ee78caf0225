package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgallion1/articleflow/internal/pipeline"
	"github.com/dgallion1/articleflow/internal/reflow"
)

// renderRequest is the body of POST /api/render. Zero values fall back to
// the server configuration.
type renderRequest struct {
	HTML            string `json:"html"`
	Title           string `json:"title"`
	Slots           int    `json:"slots"`
	PageTemplate    string `json:"page_template"`
	SlotSelector    string `json:"slot_selector"`
	ImagePolicy     string `json:"image_policy"`
	FirstTarget     int    `json:"first_target"`
	OtherTarget     int    `json:"other_target"`
	KeepOtherImages *bool  `json:"keep_other_images"`
}

const maxSlots = 64

// handleRender segments an article synchronously.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg, err := s.renderConfig(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := s.renderPage(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	res := page.Segment(req.HTML, cfg)
	if stats := s.orchestrator.Stats(); stats != nil {
		stats.Record(time.Since(start), res.Used, res.Total)
	}

	render, err := pipeline.NewRender(req.Title, page, res)
	if err != nil {
		jsonError(w, "failed to render: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(render)
}

func (s *Server) renderConfig(req renderRequest) (reflow.Config, error) {
	cfg := s.orchestrator.ReflowConfig()
	if req.ImagePolicy != "" {
		p, err := reflow.ParseImagePolicy(req.ImagePolicy)
		if err != nil {
			return cfg, err
		}
		cfg.ImagePolicy = p
	}
	if req.FirstTarget < 0 || req.OtherTarget < 0 {
		return cfg, errors.New("slot targets must not be negative")
	}
	if req.FirstTarget > 0 {
		cfg.Chunk.FirstTarget = req.FirstTarget
	}
	if req.OtherTarget > 0 {
		cfg.Chunk.RestTarget = req.OtherTarget
	}
	if req.KeepOtherImages != nil {
		cfg.KeepOtherImages = *req.KeepOtherImages
	}
	return cfg, nil
}

func (s *Server) renderPage(req renderRequest) (*reflow.Page, error) {
	if req.PageTemplate != "" {
		return reflow.ParsePage(req.PageTemplate, req.SlotSelector)
	}
	n := req.Slots
	if n == 0 {
		n = s.cfg.SlotCount
	}
	if n < 1 || n > maxSlots {
		return nil, fmt.Errorf("slots must be between 1 and %d", maxSlots)
	}
	return reflow.NewPage(n), nil
}
