package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/articleflow/internal/parser"
	"github.com/dgallion1/articleflow/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

var errTooLarge = errors.New("file exceeds max size")

// upload is one file read from a multipart form.
type upload struct {
	filename string
	data     []byte
}

// readUpload validates the extension and reads at most limit bytes.
func readUpload(fh *multipart.FileHeader, limit int64) (upload, error) {
	u := upload{filename: sanitizeFilename(fh.Filename)}
	if !parser.IsSupportedExtension(u.filename) {
		return u, fmt.Errorf("unsupported file type: %s", filepath.Ext(u.filename))
	}
	f, err := fh.Open()
	if err != nil {
		return u, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	u.data, err = io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return u, fmt.Errorf("read file: %w", err)
	}
	if int64(len(u.data)) > limit {
		return u, fmt.Errorf("%w (%d bytes)", errTooLarge, limit)
	}
	return u, nil
}

// parseForm bounds the body and parses a multipart form carrying user_id.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, maxBody, maxMemory int64) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", false
	}
	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

func acceptedJob(job *pipeline.Job) map[string]any {
	return map[string]any{
		"filename": job.Filename,
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	userID, ok := s.parseForm(w, r, s.cfg.MaxUploadBytes+1024*1024, 32<<20)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	u, err := readUpload(files[0], s.cfg.MaxUploadBytes)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		jsonError(w, err.Error(), code)
		return
	}

	job := pipeline.NewJob(userID, r.FormValue("doc_id"), u.filename, u.data)
	job.Title = r.FormValue("title")
	job.Force = r.FormValue("force") == "true"

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(acceptedJob(job))
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.parseForm(w, r, s.cfg.MaxUploadBytes*10+10*1024*1024, 64<<20)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	force := r.FormValue("force") == "true"

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		u, err := readUpload(fh, s.cfg.MaxUploadBytes)
		if err != nil {
			results = append(results, map[string]any{"filename": u.filename, "error": err.Error()})
			continue
		}
		job := pipeline.NewJob(userID, "", u.filename, u.data)
		job.Force = force
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"filename": u.filename, "error": err.Error()})
			continue
		}
		results = append(results, acceptedJob(job))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleIngestResult returns the rendered article once segmentation is done.
func (s *Server) handleIngestResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	render := job.Render()
	if render == nil {
		snap := job.Snapshot()
		code := http.StatusConflict
		if snap.Status.Terminal() {
			code = http.StatusUnprocessableEntity
		}
		jsonError(w, fmt.Sprintf("no render available (status %s)", snap.Status), code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id": job.ID,
		"doc_id": job.DocID,
		"render": render,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename keeps only a safe base name.
func sanitizeFilename(name string) string {
	name = strings.NewReplacer("\\", "/", "..", "_").Replace(name)
	name = filepath.Base(name)
	if name == "" || name == "." || name == "/" {
		return "unnamed"
	}
	return name
}
