package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/navflat/internal/parser"
	"github.com/dgallion1/navflat/internal/pipeline"
	"github.com/dgallion1/navflat/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleCreateMenu accepts either a multipart "file" upload in any
// supported format or a JSON forest body, flattens it and stores the result.
func (s *Server) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes+1024*1024)

	src, err := s.readSource(r)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err, http.StatusBadRequest))
		return
	}
	if int64(len(src.Data)) > s.cfg.Server.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.Server.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	settings := s.settingsFrom(r)
	if m, ok := s.store.FindDuplicate(store.ContentHashHex(src.Data), settings.String()); ok {
		s.log.Info("duplicate menu, reusing", "menu_id", m.ID, "filename", src.Filename)
		writeJSON(w, http.StatusOK, map[string]any{
			"menu_id":   m.ID,
			"duplicate": true,
			"menu":      m.Summary(),
		})
		return
	}

	res, err := s.builder.Build(src, settings)
	if err != nil {
		flattenFailures.WithLabelValues(failureReason(err)).Inc()
		jsonError(w, err.Error(), errorStatus(err, http.StatusBadRequest))
		return
	}
	observe(res)

	m := res.Menu()
	id, err := s.store.Put(m)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err, http.StatusInternalServerError))
		return
	}
	menusStored.Set(float64(s.store.Len()))
	s.log.Info("stored menu", "menu_id", id, "filename", src.Filename, "records", m.Index.Len())

	w.Header().Set("Location", "/api/menus/"+id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"menu_id":   id,
		"duplicate": false,
		"menu":      m.Summary(),
	})
}

func (s *Server) readSource(r *http.Request) (pipeline.Source, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return pipeline.Source{}, fmt.Errorf("failed to read body: %w", err)
		}
		name := sanitizeFilename(r.URL.Query().Get("name"))
		if filepath.Ext(name) != ".json" {
			name += ".json"
		}
		return pipeline.Source{Filename: name, Data: data}, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return pipeline.Source{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return pipeline.Source{}, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return pipeline.Source{}, fmt.Errorf("%w: %s", parser.ErrUnsupportedFormat, filepath.Ext(filename))
	}
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Server.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Source{}, fmt.Errorf("failed to read file: %w", err)
	}
	return pipeline.Source{Filename: filename, Data: data}, nil
}

// handleBatchCreate builds every uploaded file concurrently and stores the
// ones that succeed. Per-file failures are reported, not fatal.
func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), errorStatus(err, http.StatusBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, len(files))
	var srcs []pipeline.Source
	var slots []int
	for i, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results[i] = map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			}
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results[i] = map[string]any{"filename": filename, "error": "failed to open file"}
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.Server.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.Server.MaxUploadBytes {
			results[i] = map[string]any{"filename": filename, "error": "file too large or read error"}
			continue
		}
		srcs = append(srcs, pipeline.Source{Filename: filename, Data: data})
		slots = append(slots, i)
	}

	settings := s.settingsFrom(r)
	items := s.builder.BuildAll(r.Context(), srcs, settings, s.cfg.Server.BatchConcurrency)
	stored := 0
	for j, item := range items {
		i := slots[j]
		if item.Err != nil {
			flattenFailures.WithLabelValues(failureReason(item.Err)).Inc()
			results[i] = map[string]any{"filename": item.Source.Filename, "error": item.Err.Error()}
			continue
		}
		observe(item.Result)

		m := item.Result.Menu()
		id, err := s.store.Put(m)
		if err != nil {
			results[i] = map[string]any{"filename": item.Source.Filename, "error": err.Error()}
			continue
		}
		stored++
		results[i] = map[string]any{
			"filename": item.Source.Filename,
			"menu_id":  id,
			"records":  m.Index.Len(),
		}
	}
	menusStored.Set(float64(s.store.Len()))
	s.log.Info("batch stored", "files", len(files), "stored", stored)

	writeJSON(w, http.StatusOK, map[string]any{"stored": stored, "menus": results})
}

func (s *Server) handleListMenus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"menus": s.store.List()})
}

func (s *Server) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	m, ok := s.menu(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"menu":    m.Summary(),
		"records": recordsOrEmpty(m.Index.Records()),
	})
}

func (s *Server) handleDeleteMenu(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "menuID")
	if !s.store.Delete(id) {
		jsonError(w, "menu not found", http.StatusNotFound)
		return
	}
	menusStored.Set(float64(s.store.Len()))
	w.WriteHeader(http.StatusNoContent)
}

// menu loads the menu named in the URL, writing a 404 when it is absent.
func (s *Server) menu(w http.ResponseWriter, r *http.Request) (*store.Menu, bool) {
	m, err := s.store.Get(chi.URLParam(r, "menuID"))
	if err != nil {
		status := errorStatus(err, http.StatusInternalServerError)
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "menu not found", status)
		} else {
			jsonError(w, err.Error(), status)
		}
		return nil, false
	}
	return m, true
}
