package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"cataloging/internal/core"
	"cataloging/internal/log"
	"cataloging/internal/period"

	"github.com/go-playground/validator/v10"
)

// handleLogin checks the admin password from config.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := s.decodeAndValidate(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if subtle.ConstantTimeCompare([]byte(payload.Password), []byte(s.adminPassword)) != 1 {
		s.logger.WarnContext(r.Context(), "Admin login rejected",
			log.FieldClientIP, clientAddr(r))
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "login successful"})
}

// handleCreate stores a new record and returns the stored row.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if err := s.decodeAndValidate(r, &payload); err != nil {
		s.writeValidationError(w, r, err)
		return
	}

	saved, err := s.catalog.Create(r.Context(), payload.toRecord())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateStats()
	s.logger.InfoContext(r.Context(), "Record created",
		log.FieldRecordID, saved.ID,
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, recordResponse{Success: true, Data: toRecordJSON(saved)})
}

// handleUpdate replaces the business fields of an existing record.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload recordPayload
	if err := s.decodeAndValidate(r, &payload); err != nil {
		s.writeValidationError(w, r, err)
		return
	}

	saved, err := s.catalog.Update(r.Context(), id, payload.toRecord())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateStats()
	s.logger.InfoContext(r.Context(), "Record updated",
		log.FieldRecordID, id,
		log.FieldOperation, log.OpUpdate)
	writeJSON(w, http.StatusOK, recordResponse{Success: true, Data: toRecordJSON(saved)})
}

// handleDelete removes a record.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateStats()
	s.logger.InfoContext(r.Context(), "Record deleted",
		log.FieldRecordID, id,
		log.FieldOperation, log.OpDelete)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "record deleted"})
}

// handleList returns one page of records with pagination metadata.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r.URL.Query())

	res, err := s.catalog.List(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(res))
}

// handleStats returns the period report, served from cache when fresh.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	p, region, err := parseStatsQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid region: must be one of domestic, international, combined")
		return
	}

	key := string(p) + "|" + string(region)
	if resp, found := s.statsCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Stats cache hit",
			log.FieldPeriod, string(p),
			log.FieldRegion, string(region))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rep, err := s.catalog.Summarize(r.Context(), p, region)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := toStatsResponse(rep)
	s.statsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// invalidateStats drops every cached report after a mutation.
func (s *Server) invalidateStats() {
	s.statsCache.Purge()
}

// writeValidationError maps body decode and validation failures to a 422
// envelope with a readable message.
func (s *Server) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		writeError(w, http.StatusUnprocessableEntity,
			"invalid field "+field.Field()+": failed "+field.Tag()+" check")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// writeServiceError maps domain errors to response envelopes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, period.ErrInvalidBounds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrInvalidRegion),
		errors.Is(err, core.ErrInvalidCount),
		errors.Is(err, core.ErrEmptyWorker),
		errors.Is(err, core.ErrZeroWorkDate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
