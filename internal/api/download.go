package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleDownload serves one export artifact by bare filename. Anything that
// is not a plain name inside the results directory is rejected before
// touching the filesystem.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "filename")
	name, err := url.PathUnescape(raw)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid filename")
		return
	}

	if name == "" || name != filepath.Base(name) ||
		strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		jsonErr(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(s.resultsDir, name)
	f, err := http.Dir(s.resultsDir).Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			jsonErr(w, http.StatusNotFound, "artifact not found")
			return
		}
		s.logger.Error("api: open artifact", "file", path, "error", err)
		jsonErr(w, http.StatusInternalServerError, "failed to open artifact")
		return
	}
	f.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(name)))
	http.ServeFile(w, r, path)
}
