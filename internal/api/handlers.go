package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/levelforge/pkg/buildinfo"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/graphio"
	"github.com/matzehuels/levelforge/pkg/level"
	"github.com/matzehuels/levelforge/pkg/pipeline"
)

// =============================================================================
// Request / Response Types
// =============================================================================

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type levelEntry struct {
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

type summaryResponse struct {
	Summary pipeline.ScanSummary `json:"summary"`
	Cached  bool                 `json:"cached"`
}

type scanResponse struct {
	Summary  pipeline.ScanSummary `json:"summary"`
	Graph    *graphio.Document    `json:"graph"`
	Events   []diag.Event         `json:"events,omitempty"`
	ReportID string               `json:"report_id,omitempty"`
}

type shrinkRequest struct {
	// Apply deletes the candidates from disk. Without it the response is
	// a plan only.
	Apply bool `json:"apply"`

	// KeepMissing lists level-relative paths the game reported missing
	// at runtime; they are excluded from the delete set.
	KeepMissing []string `json:"keep_missing"`

	Refresh bool `json:"refresh"`
}

type shrinkResponse struct {
	Candidates []string     `json:"candidates"`
	Deleted    int          `json:"deleted"`
	Failed     int          `json:"failed"`
	Live       int          `json:"live"`
	Tainted    int          `json:"tainted"`
	Events     []diag.Event `json:"events,omitempty"`
	ReportID   string       `json:"report_id,omitempty"`
}

type copyRequest struct {
	Level       string   `json:"level"`
	TargetLevel string   `json:"target_level"`
	Brushes     []string `json:"brushes"`
	AllBrushes  bool     `json:"all_brushes"`
	Refresh     bool     `json:"refresh"`
}

type copyResponse struct {
	Brushes    []string     `json:"brushes"`
	Required   int          `json:"required"`
	Tainted    int          `json:"tainted"`
	Copied     int          `json:"copied"`
	Duplicates int          `json:"duplicates"`
	Failed     int          `json:"failed"`
	Partial    bool         `json:"partial"`
	Events     []diag.Event `json:"events,omitempty"`
	ReportID   string       `json:"report_id,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "levelforge",
		Version: buildinfo.Version,
	})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	infos, err := level.List(s.cfg.LevelsRoot)
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]levelEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, levelEntry{
			Name:      info.Name,
			Title:     info.Title,
			Path:      info.Path,
			SizeBytes: info.SizeBytes,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleSummary serves the scan summary, from cache when the level's
// content signature still matches. ?refresh=true forces a fresh scan.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	opts := s.scanOptions(r, chi.URLParam(r, "level"))
	summary, cached, err := s.runner.SummaryWithCacheInfo(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary, Cached: cached})
}

// handleScan rebuilds the level's asset graph from disk and serves it
// flattened, with the scan's summary and diagnostics.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	levelName := chi.URLParam(r, "level")
	opts := s.scanOptions(r, levelName)
	res, err := s.runner.Scan(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{
		Summary:  res.Summary,
		Graph:    graphio.Flatten(res.Graph, levelName),
		Events:   res.Events,
		ReportID: res.ReportID,
	})
}

func (s *Server) handleShrink(w http.ResponseWriter, r *http.Request) {
	var req shrinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	opts := s.scanOptions(r, chi.URLParam(r, "level"))
	opts.Refresh = opts.Refresh || req.Refresh
	opts.ManagedFolders = s.cfg.ManagedFolders
	opts.KeepMissing = req.KeepMissing
	opts.Apply = req.Apply

	res, err := s.runner.Shrink(r.Context(), opts)
	if res == nil {
		writeError(w, err)
		return
	}
	// A partial apply still returns the result; the failures show up in
	// the counters and events.
	if err != nil {
		s.logger.Warn("shrink finished with errors", "level", opts.Level, "error", err)
	}
	resp := shrinkResponse{
		Candidates: res.Candidates,
		Deleted:    res.Deleted,
		Failed:     res.Failed,
		Live:       res.Live,
		Tainted:    res.Tainted,
		Events:     res.Events,
		ReportID:   res.ReportID,
	}
	if resp.Candidates == nil {
		resp.Candidates = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	opts := pipeline.Options{
		LevelsRoot:  s.cfg.LevelsRoot,
		Level:       req.Level,
		GameDir:     s.cfg.GameDir,
		ImageExts:   s.cfg.ImageExtensions,
		Refresh:     req.Refresh,
		TargetLevel: req.TargetLevel,
		Brushes:     req.Brushes,
		AllBrushes:  req.AllBrushes,
	}

	res, err := s.runner.Copy(r.Context(), opts)
	if res == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		s.logger.Warn("copy finished with errors", "level", opts.Level, "target", opts.TargetLevel, "error", err)
	}
	writeJSON(w, http.StatusOK, copyResponse{
		Brushes:    res.Brushes,
		Required:   res.Required,
		Tainted:    res.Tainted,
		Copied:     res.Copied,
		Duplicates: res.Duplicates,
		Failed:     res.Failed,
		Partial:    res.Partial,
		Events:     res.Events,
		ReportID:   res.ReportID,
	})
}

// scanOptions builds the pipeline options every level-scoped endpoint
// shares. The runner injects its own logger.
func (s *Server) scanOptions(r *http.Request, levelName string) pipeline.Options {
	return pipeline.Options{
		LevelsRoot: s.cfg.LevelsRoot,
		Level:      levelName,
		GameDir:    s.cfg.GameDir,
		ImageExts:  s.cfg.ImageExtensions,
		Refresh:    r.URL.Query().Get("refresh") == "true",
	}
}
