// Package file exposes filesystem save and load of drawing documents
// for offline use, alongside the database-backed snapshots.
package file

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/draftkit/draftkit/backend-go/internal/document"
)

const maxDocumentSize = 20 << 20 // 20MB

// Handler reads and writes .draft.json files under a data directory.
type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create data dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

type saveRequest struct {
	Name     string                  `json:"name"`
	Document *document.DraftDocument `json:"document"`
}

type fileInfo struct {
	Name     string `json:"name"`
	Modified string `json:"modified"`
	Size     int64  `json:"size"`
}

// Save handles POST /files. The document is validated by decoding into
// the typed model before anything touches disk.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Document == nil {
		http.Error(w, "name and document are required", http.StatusBadRequest)
		return
	}

	name := sanitizeName(req.Name)
	docJSON, err := json.MarshalIndent(req.Document, "", "  ")
	if err != nil {
		slog.Error("marshal document", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	path := filepath.Join(h.dir, name+".draft.json")
	if err := os.WriteFile(path, docJSON, 0644); err != nil {
		slog.Error("write document", "error", err, "path", path)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"name": name})
}

// Load handles GET /files/{name}.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	name := sanitizeName(mux.Vars(r)["name"])

	data, err := os.ReadFile(filepath.Join(h.dir, name+".draft.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		slog.Error("read document", "error", err, "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Round-trip through the model so corrupt files fail here, not in
	// the client.
	var doc document.DraftDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		http.Error(w, "corrupt document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// List handles GET /files.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		slog.Error("read data dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".draft.json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			Name:     strings.TrimSuffix(entry.Name(), ".draft.json"),
			Modified: info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
			Size:     info.Size(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

// Delete handles DELETE /files/{name}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := sanitizeName(mux.Vars(r)["name"])

	if err := os.Remove(filepath.Join(h.dir, name+".draft.json")); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		slog.Error("delete document", "error", err, "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sanitizeName keeps filenames path-safe; anything outside the allowed
// set folds to '-'.
func sanitizeName(name string) string {
	if name == "" {
		return "drawing"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
