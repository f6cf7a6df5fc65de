package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geargrade/geargrade-backend/internal/application/command"
	"github.com/geargrade/geargrade-backend/internal/application/query"
	"github.com/geargrade/geargrade-backend/internal/domain/grading"
	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// renameSemesterRequest is the body of PATCH /semesters/{id}.
type renameSemesterRequest struct {
	Name string `json:"name"`
}

// updateCourseRequest is the body of PATCH /courses/{courseID}.
// Omitted fields keep their current values.
type updateCourseRequest struct {
	Name    *string  `json:"name,omitempty"`
	Credits *float64 `json:"credits,omitempty"`
	Grade   *string  `json:"grade,omitempty"`
}

func (r updateCourseRequest) toCourseUpdate() transcript.CourseUpdate {
	upd := transcript.CourseUpdate{
		Name:    r.Name,
		Credits: r.Credits,
	}
	if r.Grade != nil {
		symbol := grading.Symbol(*r.Grade)
		upd.Grade = &symbol
	}
	return upd
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// semesterRefDTO describes a semester created by a mutation.
type semesterRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// courseRefDTO describes a course created or updated by a mutation.
type courseRefDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Credits float64 `json:"credits"`
	Grade   string  `json:"grade"`
}

// editResponse is the common envelope for transcript and planner mutations.
// Rejected structural operations come back with applied=false and a reason
// instead of an error status: the client renders them as disabled actions.
type editResponse struct {
	Applied       bool            `json:"applied"`
	Reason        string          `json:"reason,omitempty"`
	Semester      *semesterRefDTO `json:"semester,omitempty"`
	Course        *courseRefDTO   `json:"course,omitempty"`
	CGPA          *float64        `json:"cgpa,omitempty"`
	TotalCredits  *float64        `json:"total_credits,omitempty"`
	ProjectedCGPA *float64        `json:"projected_cgpa,omitempty"`
}

func semesterRef(s *transcript.Semester) *semesterRefDTO {
	if s == nil {
		return nil
	}
	return &semesterRefDTO{ID: s.ID, Name: s.Name}
}

func courseRef(c *transcript.Course) *courseRefDTO {
	if c == nil {
		return nil
	}
	return &courseRefDTO{ID: c.ID, Name: c.Name, Credits: c.Credits, Grade: string(c.Grade)}
}

func transcriptEditResponse(result command.EditTranscriptResult) editResponse {
	return editResponse{
		Applied:      result.Applied,
		Reason:       result.Reason,
		Semester:     semesterRef(result.Semester),
		Course:       courseRef(result.Course),
		CGPA:         &result.CGPA,
		TotalCredits: &result.TotalCredits,
	}
}

func plannerEditResponse(result command.EditPlannerResult) editResponse {
	return editResponse{
		Applied:       result.Applied,
		Reason:        result.Reason,
		Semester:      semesterRef(result.Semester),
		Course:        courseRef(result.Course),
		ProjectedCGPA: &result.ProjectedCGPA,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "geargrade-backend",
		"version": "v1",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"healthy": true,
			"message": "no health checks configured",
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{"ready": status.Ready})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	// Liveness never consults downstream dependencies.
	writeJSON(w, http.StatusOK, map[string]interface{}{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	q := query.GetOverviewQuery{
		IncludeCourses: getQueryParamBool(r, "include_courses", true),
		IncludeScale:   getQueryParamBool(r, "include_scale", false),
	}

	result, err := s.deps.GetOverview.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPlanner(w http.ResponseWriter, r *http.Request) {
	q := query.GetProjectionQuery{
		IncludeCourses: getQueryParamBool(r, "include_courses", true),
	}

	result, err := s.deps.GetProjection.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProjection(w http.ResponseWriter, r *http.Request) {
	q := query.GetProjectionQuery{
		IncludeCourses: getQueryParamBool(r, "include_courses", false),
	}

	result, err := s.deps.GetProjection.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	q := query.GetHistoryQuery{
		Limit: getQueryParamInt(r, "limit", 0),
	}

	if since := getQueryParam(r, "since", ""); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "since must be RFC3339")
			return
		}
		q.Since = parsed
	}

	result, err := s.deps.GetHistory.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAdvice(w http.ResponseWriter, r *http.Request) {
	q := query.SuggestFocusQuery{
		SemesterID: getQueryParam(r, "semester_id", ""),
	}

	result, err := s.deps.SuggestFocus.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSCRIPT WRITE SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleAddSemester(w http.ResponseWriter, r *http.Request) {
	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action: command.ActionAddSemester,
	})
}

func (s *Server) handleRenameSemester(w http.ResponseWriter, r *http.Request) {
	var req renameSemesterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action:     command.ActionRenameSemester,
		SemesterID: r.PathValue("id"),
		Name:       req.Name,
	})
}

func (s *Server) handleDeleteSemester(w http.ResponseWriter, r *http.Request) {
	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action:     command.ActionDeleteSemester,
		SemesterID: r.PathValue("id"),
	})
}

func (s *Server) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action:     command.ActionAddCourse,
		SemesterID: r.PathValue("id"),
	})
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req updateCourseRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action:     command.ActionUpdateCourse,
		SemesterID: r.PathValue("id"),
		CourseID:   r.PathValue("courseID"),
		Course:     req.toCourseUpdate(),
	})
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action:     command.ActionDeleteCourse,
		SemesterID: r.PathValue("id"),
		CourseID:   r.PathValue("courseID"),
	})
}

func (s *Server) handleResetTranscript(w http.ResponseWriter, r *http.Request) {
	s.editTranscript(w, r, command.EditTranscriptCommand{
		Action: command.ActionReset,
	})
}

// editTranscript executes a transcript mutation and writes the common envelope.
func (s *Server) editTranscript(w http.ResponseWriter, r *http.Request, cmd command.EditTranscriptCommand) {
	result, err := s.deps.EditTranscript.Handle(r.Context(), cmd)
	if err != nil {
		s.writeEditError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transcriptEditResponse(result))
}

// ══════════════════════════════════════════════════════════════════════════════
// PLANNER WRITE SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handlePlannerAddSemester(w http.ResponseWriter, r *http.Request) {
	s.editPlanner(w, r, command.EditPlannerCommand{
		Action: command.ActionAddSemester,
	})
}

func (s *Server) handlePlannerRenameSemester(w http.ResponseWriter, r *http.Request) {
	var req renameSemesterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	s.editPlanner(w, r, command.EditPlannerCommand{
		Action:     command.ActionRenameSemester,
		SemesterID: r.PathValue("id"),
		Name:       req.Name,
	})
}

func (s *Server) handlePlannerDeleteSemester(w http.ResponseWriter, r *http.Request) {
	s.editPlanner(w, r, command.EditPlannerCommand{
		Action:     command.ActionDeleteSemester,
		SemesterID: r.PathValue("id"),
	})
}

func (s *Server) handlePlannerAddCourse(w http.ResponseWriter, r *http.Request) {
	s.editPlanner(w, r, command.EditPlannerCommand{
		Action:     command.ActionAddCourse,
		SemesterID: r.PathValue("id"),
	})
}

func (s *Server) handlePlannerUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req updateCourseRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	s.editPlanner(w, r, command.EditPlannerCommand{
		Action:     command.ActionUpdateCourse,
		SemesterID: r.PathValue("id"),
		CourseID:   r.PathValue("courseID"),
		Course:     req.toCourseUpdate(),
	})
}

func (s *Server) handlePlannerDeleteCourse(w http.ResponseWriter, r *http.Request) {
	s.editPlanner(w, r, command.EditPlannerCommand{
		Action:     command.ActionDeleteCourse,
		SemesterID: r.PathValue("id"),
		CourseID:   r.PathValue("courseID"),
	})
}

func (s *Server) handlePlannerReset(w http.ResponseWriter, r *http.Request) {
	s.editPlanner(w, r, command.EditPlannerCommand{
		Action: command.ActionReset,
	})
}

// editPlanner executes a planner mutation and writes the common envelope.
func (s *Server) editPlanner(w http.ResponseWriter, r *http.Request, cmd command.EditPlannerCommand) {
	result, err := s.deps.EditPlanner.Handle(r.Context(), cmd)
	if err != nil {
		s.writeEditError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, plannerEditResponse(result))
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes a JSON request body, writing a 400 on failure.
// An empty body is treated as an empty object.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return true
	}
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeEditError maps command errors to HTTP statuses.
func (s *Server) writeEditError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		// Command validation errors carry no sentinel, but they are the
		// only non-infrastructure failure mode left here.
		if isCommandValidation(err) {
			writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		s.logger.Error("edit request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Operation failed")
	}
}

// writeQueryError maps query errors to HTTP statuses.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNoGradedCourses):
		writeJSONError(w, http.StatusUnprocessableEntity, "no_graded_courses", "No graded courses to analyze")
	case errors.Is(err, shared.ErrExternalService):
		writeJSONError(w, http.StatusServiceUnavailable, "advisor_unavailable", "Advisory service is unavailable")
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		s.logger.Error("query request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Query failed")
	}
}

// isCommandValidation reports whether err came from command validation.
// Validation failures are produced before any state is touched.
func isCommandValidation(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "edit_transcript:") || strings.HasPrefix(msg, "edit_planner:")
}
