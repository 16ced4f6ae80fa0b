package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/dispatch"
)

type analyzeReq struct {
	FilePath string `json:"file_path"`
}

type sendReq struct {
	PageIndex *int `json:"page_index"`
}

type sendAllResp struct {
	Results []dispatch.SendResult `json:"results"`
}

// handleAnalyze accepts either a multipart upload in field "file" or a
// JSON body naming a file already on disk.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var path string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		p, err := s.saveUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		path = p
	} else {
		var req analyzeReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.FilePath) == "" {
			writeError(w, http.StatusBadRequest, "missing file_path")
			return
		}
		path = req.FilePath
	}

	job, err := s.svc.Analyze(r.Context(), path)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", fmt.Errorf("invalid upload: %w", err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload.pdf"
	}
	dir := filepath.Join(s.uploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	log.Info().Str("file", dst).Int64("size", hdr.Size).Msg("saved upload")
	return dst, nil
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.svc.Drafts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

// handlePreview serves a JPEG of the page; {page} is the 0-based page
// index used in job results.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page index")
		return
	}
	img, err := s.svc.Preview(r.Context(), chi.URLParam(r, "id"), idx)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.JPEG)))
	w.Header().Set("X-Image-Width", strconv.Itoa(img.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(img.Height))
	_, _ = w.Write(img.JPEG)
}

// handleSend sends one stopover when page_index is given, otherwise every
// sendable stopover of the job.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendReq
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	id := chi.URLParam(r, "id")

	if req.PageIndex != nil {
		res, err := s.svc.Send(r.Context(), id, *req.PageIndex)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	results, err := s.svc.SendAll(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sendAllResp{Results: results})
}
