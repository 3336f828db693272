package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"certregistry/internal/platform/metrics"
	"certregistry/model"
	"certregistry/registry"
)

type registerInstituteRequest struct {
	Name              string `json:"name"`
	Acronym           string `json:"acronym"`
	InstituteIdentity string `json:"instituteIdentity"`
}

type bulkUploadRequest struct {
	IssuerName string                 `json:"issuerName"`
	Items      []model.BulkUploadItem `json:"items"`
}

type adminResponse struct {
	Admin string `json:"admin"`
}

// caller returns the identity header value or errMissingIdentity.
func (s *Server) caller(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(s.identityHeader))
	if id == "" {
		return "", fmt.Errorf("%w: %s", errMissingIdentity, s.identityHeader)
	}
	return id, nil
}

// observe counts the operation outcome when metrics are enabled.
func (s *Server) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome, _ = classify(err)
	}
	s.metrics.ObserveOperation(operation, outcome)
}

// fail logs, counts and renders a failed operation.
func (s *Server) fail(w http.ResponseWriter, operation string, err error) {
	s.observe(operation, err)
	if _, status := classify(err); status == http.StatusInternalServerError {
		logger.Errorf("%s failed: %v", operation, err)
	} else {
		logger.Debugf("%s rejected: %v", operation, err)
	}
	writeError(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", registry.ErrInvalidArgument, err)
	}
	return nil
}

// requireFields fails on the first empty value; fields alternate name and value.
func requireFields(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return fmt.Errorf("%w: %s cannot be empty", registry.ErrInvalidArgument, fields[i])
		}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	const op = "initialize"
	caller, err := s.caller(r)
	if err == nil {
		err = s.registry.Initialize(caller)
	}
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusCreated, adminResponse{Admin: caller})
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	const op = "get_admin"
	admin, err := s.registry.Admin()
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusOK, adminResponse{Admin: admin})
}

func (s *Server) handleRegisterInstitute(w http.ResponseWriter, r *http.Request) {
	const op = "register_institute"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	var req registerInstituteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, op, err)
		return
	}
	if err := requireFields("name", req.Name, "acronym", req.Acronym, "instituteIdentity", req.InstituteIdentity); err != nil {
		s.fail(w, op, err)
		return
	}
	if err := s.registry.RegisterInstitute(caller, req.Name, req.Acronym, req.InstituteIdentity); err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusCreated, model.InstituteView{
		Name:              req.Name,
		Acronym:           req.Acronym,
		InstituteIdentity: req.InstituteIdentity,
	})
}

func (s *Server) handleListInstitutes(w http.ResponseWriter, r *http.Request) {
	const op = "list_institutes"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	institutes, err := s.registry.ListInstitutes(caller)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	views := make([]model.InstituteView, 0, len(institutes))
	for _, inst := range institutes {
		views = append(views, inst.View())
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusOK, views)
}

// handleGetInstituteDetails answers for the institute in the identity header. The admin
// header, when present, is passed as the admin identity.
func (s *Server) handleGetInstituteDetails(w http.ResponseWriter, r *http.Request) {
	const op = "get_institute_details"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	adminCaller := strings.TrimSpace(r.Header.Get(s.adminHeader))
	view, err := s.registry.GetInstituteDetails(caller, adminCaller)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetInstituteByIdentity(w http.ResponseWriter, r *http.Request) {
	const op = "get_institute_by_identity"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	identity, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if err != nil {
		s.fail(w, op, fmt.Errorf("%w: invalid identity in path: %v", registry.ErrInvalidArgument, err))
		return
	}
	view, err := s.registry.InstituteByIdentity(caller, identity)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePostCertificate(w http.ResponseWriter, r *http.Request) {
	const op = "post_certificate"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	var req model.PostCertificateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, op, err)
		return
	}
	if err := requireFields("studentIdentity", req.StudentIdentity, "hash", req.Hash); err != nil {
		s.fail(w, op, err)
		return
	}
	cert, err := s.registry.PostCertificate(caller, req)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	if s.metrics != nil {
		s.metrics.AddCertificatesPosted(1)
	}
	writeJSON(w, http.StatusCreated, cert.View())
}

func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	const op = "bulk_upload"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	var req bulkUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, op, err)
		return
	}
	result, err := s.registry.BulkUpload(caller, req.Items, req.IssuerName)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	if s.metrics != nil {
		s.metrics.AddCertificatesPosted(len(result.Posted))
		s.metrics.AddBulkItemsSkipped(result.FailedCount)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetStudentDetails(w http.ResponseWriter, r *http.Request) {
	const op = "get_student_details"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	views, err := s.registry.GetStudentDetails(caller)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetStudentRecord(w http.ResponseWriter, r *http.Request) {
	const op = "get_student_record"
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	student, err := s.registry.StudentRecord(caller)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.observe(op, nil)
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.recorder.Recent())
}
