package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"points-mall/internal/uploads"
)

const maxUploadSize = 8 << 20 // 8 MiB

func (s *Server) UploadFile(w http.ResponseWriter, r *http.Request) {
	if _, err := s.currentUser(r); err != nil {
		s.httpError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file in request", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name, err := s.Uploads.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, uploads.ErrUnsupportedType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.httpError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"url":      "/api/uploads/" + name,
		"filename": name,
	})
}

func (s *Server) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := s.Uploads.Open(name)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.httpError(w, err)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}
