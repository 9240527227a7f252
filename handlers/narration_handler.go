package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/serisow/narrador/category"
	"github.com/serisow/narrador/document"
	"github.com/serisow/narrador/pipeline"
	"github.com/serisow/narrador/speech"
)

const maxUploadSize = 200 << 20

var backgroundExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

type NarrationHandler struct {
	logger     *slog.Logger
	runner     *pipeline.Runner
	categories *category.Store
	extractor  *document.Extractor
	uploadDir  string
}

func NewNarrationHandler(logger *slog.Logger, runner *pipeline.Runner, categories *category.Store, uploadDir string) *NarrationHandler {
	return &NarrationHandler{
		logger:     logger,
		runner:     runner,
		categories: categories,
		extractor:  document.NewExtractor(logger),
		uploadDir:  uploadDir,
	}
}

// Submit accepts a multipart narration request. The narration comes from a
// "document" file, a "text" field or a "source_url" page, in that order.
func (h *NarrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	text, err := h.narrationText(r)
	if err != nil {
		h.logger.Warn("Rejected narration request", slog.String("error", err.Error()))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	useStock, err := formBool(r, "use_stock")
	if err != nil {
		writeJSONError(w, "use_stock must be a boolean", http.StatusBadRequest)
		return
	}
	grouped, err := formBool(r, "grouping")
	if err != nil {
		writeJSONError(w, "grouping must be a boolean", http.StatusBadRequest)
		return
	}

	sub := pipeline.Submission{
		Text:       text,
		Voice:      r.FormValue("voice"),
		UseStock:   useStock,
		Grouped:    grouped,
		OutputName: r.FormValue("output_name"),
	}

	background, err := h.saveBackground(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if background != "" {
		sub.BackgroundPath = background
		sub.OwnedFiles = append(sub.OwnedFiles, background)
	}

	record, err := h.runner.Submit(sub)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"run_id":  record.RunID,
		"status":  string(record.Status),
		"message": "Narration run started",
	})
}

func (h *NarrationHandler) narrationText(r *http.Request) (string, error) {
	file, header, err := r.FormFile("document")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("failed to read document")
		}
		h.logger.Debug("Extracting narration text",
			slog.String("filename", header.Filename),
			slog.Int64("size", header.Size))
		text, err := h.extractor.Extract(header.Filename, data)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from %s: %w", header.Filename, err)
		}
		return text, nil
	case !errors.Is(err, http.ErrMissingFile):
		return "", fmt.Errorf("failed to read document")
	}

	if text := r.FormValue("text"); strings.TrimSpace(text) != "" {
		return text, nil
	}

	if url := strings.TrimSpace(r.FormValue("source_url")); url != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		text, err := h.extractor.FetchURL(ctx, url)
		if err != nil {
			return "", fmt.Errorf("failed to fetch source_url: %w", err)
		}
		return text, nil
	}
	return "", errors.New("one of document, text or source_url is required")
}

// saveBackground copies an uploaded background video out of the request so
// it outlives the handler. The run deletes it when finished.
func (h *NarrationHandler) saveBackground(r *http.Request) (string, error) {
	file, header, err := r.FormFile("background")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", errors.New("failed to read background")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !backgroundExtensions[ext] {
		return "", fmt.Errorf("unsupported background format: %s", ext)
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	dst, err := os.CreateTemp(h.uploadDir, "background_*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to store background: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to store background: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to store background: %w", err)
	}
	return dst.Name(), nil
}

// GetRun returns the status of a run.
func (h *NarrationHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	record, err := h.runner.Lookup(r.Context(), runID)
	if errors.Is(err, pipeline.ErrRunNotFound) {
		writeJSONError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to look up run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to look up run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DownloadVideo serves a finished video from the output directory.
func (h *NarrationHandler) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".mp4" {
		writeJSONError(w, "Invalid file name", http.StatusBadRequest)
		return
	}
	path := filepath.Join(h.runner.OutputDir(), name)
	if _, err := os.Stat(path); err != nil {
		writeJSONError(w, "Video not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

// ListCategories returns the current category snapshot.
func (h *NarrationHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": h.categories.Snapshot().Categories(),
	})
}

func (h *NarrationHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": speech.DefaultVoice,
		"voices":  speech.Voices(),
	})
}

func formBool(r *http.Request, key string) (bool, error) {
	value := r.FormValue(key)
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
