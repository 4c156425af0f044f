package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campuslens/campuslens/internal/storage"
)

func (s *Server) handleListInstitutions(w http.ResponseWriter, r *http.Request) {
	records, err := s.storage.ListInstitutions(r.Context())
	if err != nil {
		s.logger.Error("list institutions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": records,
		"count":        len(records),
	})
}

func (s *Server) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	rec, err := s.storage.GetInstitution(r.Context(), key)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "institution not found")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleInstitutionScholarships(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	records, err := s.storage.ScholarshipsByInstitutionKey(r.Context(), key)
	if err != nil {
		s.logger.Error("scholarship lookup failed", zap.String("key", key), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"institution_key": key,
		"scholarships":    records,
		"count":           len(records),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": s.catalog.Entries(),
		"count":        s.catalog.Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	institutionCount, err := s.storage.CountInstitutions(ctx)
	if err != nil {
		s.logger.Error("status: count institutions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scholarshipCount, err := s.storage.CountScholarships(ctx)
	if err != nil {
		s.logger.Error("status: count scholarships failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"institutions": institutionCount,
		"scholarships": scholarshipCount,
		"catalog_size": s.catalog.Len(),
	}
	if s.index != nil {
		if count, err := s.index.DocCount(); err == nil {
			resp["indexed_scholarships"] = count
		}
	}

	configInfo := map[string]interface{}{
		"model":         s.config.Model.Name,
		"database_path": s.config.Storage.DatabasePath,
		"index_path":    s.config.Storage.ScholarshipIndexPath,
		"catalog_path":  s.config.Catalog.Path,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.ScholarshipIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
