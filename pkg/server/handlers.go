package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/session"
	"github.com/goliatone/go-formengine/pkg/sink"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/validation"
)

type schemaSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type sessionView struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Generation uint64              `json:"generation"`
	Values     state.Node          `json:"values"`
	Errors     validation.ErrorMap `json:"errors"`
}

type selectRequest struct {
	Schema string `json:"schema"`
}

type changeRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type uploadResponse struct {
	Outcome string              `json:"outcome"`
	Values  state.Node          `json:"values"`
	Errors  validation.ErrorMap `json:"errors"`
}

type submitResponse struct {
	OK     bool                `json:"ok"`
	Data   map[string]any      `json:"data,omitempty"`
	Record *sink.Record        `json:"record,omitempty"`
	Errors validation.ErrorMap `json:"errors,omitempty"`
}

func viewOf(id string, sess *session.Session) sessionView {
	return sessionView{
		ID:         id,
		Schema:     sess.SchemaID(),
		Generation: sess.Generation(),
		Values:     sess.Values(),
		Errors:     sess.Errors(),
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSchemas(w http.ResponseWriter, _ *http.Request) {
	list := s.catalog.List()
	out := make([]schemaSummary, 0, len(list))
	for _, sch := range list {
		out = append(out, schemaSummary{ID: sch.ID, Title: sch.Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	sch, err := s.catalog.Lookup(chi.URLParam(r, "schemaID"))
	if err != nil {
		writeError(w, http.StatusNotFound, codeUnknownSchema, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, sess, err := s.newSession(req.Schema)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(id, sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.dropSession(chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, codeNotFound, ErrSessionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectSchema(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := sess.Select(req.Schema); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, sess))
}

func (s *Server) changeField(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := sess.Change(req.Path, normaliseValue(req.Value)); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, sess))
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	outcome, err := sess.ChangeFile(r.Context(), chi.URLParam(r, "path"), uploadFrom(header, file))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	status := http.StatusOK
	if outcome == session.UploadSuperseded {
		status = http.StatusConflict
	}
	writeJSON(w, status, uploadResponse{
		Outcome: outcome.String(),
		Values:  sess.Values(),
		Errors:  sess.Errors(),
	})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if sess.SchemaID() == "" {
		s.writeSessionError(w, session.ErrNoSchema)
		return
	}
	if isFormPost(r) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
		if err := s.applyFormPost(r, sess); err != nil {
			s.writeSessionError(w, err)
			return
		}
	}

	result := sess.Submit()
	if !result.OK {
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{Errors: result.Errors})
		return
	}

	record, err := s.sink.Store(r.Context(), *result.Artifact)
	if err != nil {
		s.logger.Printf("server: store submission for %s: %v", result.Artifact.SchemaID, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to store submission")
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		OK:     true,
		Data:   result.Artifact.Data(),
		Record: &record,
	})
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if sess.SchemaID() == "" {
		s.writeSessionError(w, session.ErrNoSchema)
		return
	}
	out, err := s.renderer.Render(r.Context(), render.Form{
		Schema: sess.Schema(),
		Values: sess.Values(),
		Errors: sess.Errors(),
		Action: "/api/v1/sessions/" + id + "/submit",
		Method: http.MethodPost,
		Hidden: []render.HiddenField{
			render.Hidden(formSchemaField, sess.SchemaID()),
			render.Hidden(formGenerationField, sess.Generation()),
		},
	})
	if err != nil {
		s.logger.Printf("server: render %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to render form")
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.sink.(sink.Reader)
	if !ok {
		writeError(w, http.StatusNotImplemented, codeUnavailable, "submission store is write-only")
		return
	}
	params := sink.ListParams{SchemaID: r.URL.Query().Get("schema")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid limit: "+raw)
			return
		}
		params.Limit = n
	}
	records, err := reader.List(r.Context(), params)
	if err != nil {
		s.logger.Printf("server: list submissions: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to list submissions")
		return
	}
	if records == nil {
		records = []sink.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.sink.(sink.Reader)
	if !ok {
		writeError(w, http.StatusNotImplemented, codeUnavailable, "submission store is write-only")
		return
	}
	record, err := reader.Get(r.Context(), chi.URLParam(r, "recordID"))
	switch {
	case errors.Is(err, sink.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case err != nil:
		s.logger.Printf("server: get submission: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to load submission")
	default:
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.session(id)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
		return "", nil, false
	}
	return id, sess, true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownSchema):
		writeError(w, http.StatusNotFound, codeUnknownSchema, err.Error())
	case errors.Is(err, session.ErrUnknownField):
		writeError(w, http.StatusNotFound, codeUnknownField, err.Error())
	case errors.Is(err, session.ErrNotFileField):
		writeError(w, http.StatusBadRequest, codeNotFileField, err.Error())
	case errors.Is(err, session.ErrNoSchema):
		writeError(w, http.StatusConflict, codeNoSchema, err.Error())
	case errors.Is(err, errStaleForm):
		writeError(w, http.StatusConflict, codeStaleForm, err.Error())
	case errors.Is(err, errInvalidForm):
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
	default:
		s.logger.Printf("server: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// normaliseValue turns decoded JSON arrays of strings into []string so
// multiselect values keep one shape across transports.
func normaliseValue(value any) any {
	list, ok := value.([]any)
	if !ok {
		return value
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		str, ok := item.(string)
		if !ok {
			return value
		}
		out = append(out, str)
	}
	return out
}
