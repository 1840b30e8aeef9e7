package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/lifecycle"
)

// uuidRequest carries the record identifier for confirm and retrieve, and
// the old-record identifier for update.
type uuidRequest struct {
	UUID *string `json:"uuid"`
}

// listRecentRequest accepts limit as either a JSON number or a numeric
// string; the platform sends both.
type listRecentRequest struct {
	ContactUUID *string         `json:"contact_uuid"`
	Limit       json.RawMessage `json:"limit"`
}

// handleCommand dispatches on the trimmed request path. Every response goes
// out with HTTP 200; logical failures travel in the "error" field.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	command := strings.Trim(r.URL.Path, "/")
	start := time.Now()
	defer func() {
		s.metrics.RequestDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, command, "No Data")
		return
	}

	// The platform occasionally posts empty or non-JSON bodies; all of them
	// get the same "No Data" answer, as does an empty JSON object.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		s.respondError(w, command, "No Data")
		return
	}

	switch command {
	case "record":
		s.handleRecord(w, r, body)
	case "confirm":
		s.handleConfirm(w, r, body)
	case "update":
		s.handleUpdate(w, r, body)
	case "retrieve":
		s.handleRetrieve(w, r, body)
	case "list_recent":
		s.handleListRecent(w, r, body)
	default:
		s.respondError(w, command, "Invalid path")
	}
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request, body []byte) {
	var sub domain.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		s.respondError(w, "record", "No Data")
		return
	}

	res, err := s.engine.Record(r.Context(), sub)
	if err != nil {
		s.respondEngineError(w, "record", err)
		return
	}
	s.respondRecordResult(w, res)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, body []byte) {
	var req uuidRequest
	if err := json.Unmarshal(body, &req); err != nil || req.UUID == nil {
		s.respondError(w, "confirm", "No UUID in request")
		return
	}

	if err := s.engine.Confirm(r.Context(), *req.UUID); err != nil {
		s.respondEngineError(w, "confirm", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uuid": *req.UUID})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request, body []byte) {
	var req uuidRequest
	if err := json.Unmarshal(body, &req); err != nil || req.UUID == nil {
		s.respondError(w, "retrieve", "No UUID in request")
		return
	}

	rec, err := s.engine.Retrieve(r.Context(), *req.UUID)
	if err != nil {
		s.respondEngineError(w, "retrieve", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, body []byte) {
	var req uuidRequest
	if err := json.Unmarshal(body, &req); err != nil || req.UUID == nil {
		s.respondError(w, "update", "No UUID in request")
		return
	}
	var sub domain.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		s.respondError(w, "update", "No Data")
		return
	}

	res, err := s.engine.Update(r.Context(), *req.UUID, sub)
	if err != nil {
		s.respondEngineError(w, "update", err)
		return
	}
	s.respondRecordResult(w, res)
}

func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request, body []byte) {
	var req listRecentRequest
	if err := json.Unmarshal(body, &req); err != nil || req.ContactUUID == nil {
		s.respondError(w, "list_recent", "No Contact UUID in request")
		return
	}

	entries, err := s.engine.ListRecent(r.Context(), *req.ContactUUID, parseLimit(req.Limit))
	if err != nil {
		s.respondEngineError(w, "list_recent", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":  entries.Text,
		"uuids": entries.UUIDs,
	})
}

// respondRecordResult maps an engine result to the record/update response
// shape. Duplicate hits echo the existing record with its value coerced to a
// string; fresh writes answer with the new uuid and any advisory warning.
func (s *Server) respondRecordResult(w http.ResponseWriter, res lifecycle.RecordResult) {
	if res.Existing {
		writeJSON(w, http.StatusOK, map[string]string{
			"existing":          "true",
			"uuid":              res.UUID,
			"measurement_value": res.ExistingValue,
			"measurement_type":  string(res.MeasurementType),
			"date":              res.Date,
		})
		return
	}

	resp := map[string]string{"uuid": res.UUID}
	if res.Warning != "" {
		resp["warning"] = res.Warning
	}
	writeJSON(w, http.StatusOK, resp)
}

// respondEngineError converts any engine failure to the in-band error field.
// Validation and not-found messages are user-facing; anything else is logged
// and relayed as-is (the platform shows it to an operator, not the public).
func (s *Server) respondEngineError(w http.ResponseWriter, command string, err error) {
	s.logger.Info("command failed", "command", command, "error", err)
	s.respondError(w, command, err.Error())
}

func (s *Server) respondError(w http.ResponseWriter, command, message string) {
	s.metrics.RequestErrors.WithLabelValues(command).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"error": message})
}

// parseLimit coerces the optional limit field, tolerating numbers and
// numeric strings. Anything unusable returns 0, which selects the default.
func parseLimit(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return int(v)
		}
	}
	return 0
}
