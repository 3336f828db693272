package registry

import (
	"fmt"

	"certregistry/model"
)

// PostCertificate records one certificate for a student. The caller must be a registered
// institute. The hash is not checked for duplicates here; BulkUpload is the deduplicating path.
func (r *Registry) PostCertificate(caller string, req model.PostCertificateRequest) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, err := r.requireInstitute(caller)
	if err != nil {
		return nil, fmt.Errorf("PostCertificate: %w", err)
	}
	ts, err := r.now()
	if err != nil {
		return nil, fmt.Errorf("PostCertificate: %w", err)
	}

	cert := model.Certificate{
		StudentName:     req.StudentName,
		StudentIdentity: req.StudentIdentity,
		CollegeName:     inst.Name,
		Hash:            req.Hash,
		URL:             req.URL,
		CertificateType: req.CertificateType,
		IssuerName:      req.IssuerName,
		WitnessIdentity: inst.InstituteIdentity,
		Timestamp:       ts,
	}
	if err := r.store.AppendCertificate(cert); err != nil {
		return nil, fmt.Errorf("PostCertificate: failed to store certificate '%s': %w", req.Hash, err)
	}
	if err := r.recordStudent(req.StudentIdentity, req.StudentName, inst.Name, req.URL); err != nil {
		return nil, fmt.Errorf("PostCertificate: %w", err)
	}
	logger.Infof("Certificate '%s' posted for student '%s' by institute '%s'", cert.Hash, cert.StudentIdentity, inst.Name)
	return &cert, nil
}

// recordStudent creates the student record on first post, otherwise appends to it.
// The stored name is never replaced. Callers hold the write lock.
func (r *Registry) recordStudent(address, name, instituteName, uri string) error {
	student, err := r.store.Student(address)
	if err != nil {
		return fmt.Errorf("failed to read student '%s': %w", address, err)
	}
	if student == nil {
		student = &model.Student{
			Name:           name,
			Address:        address,
			InstituteNames: []string{instituteName},
			URIs:           []string{uri},
		}
	} else {
		student.InstituteNames = append(student.InstituteNames, instituteName)
		student.URIs = append(student.URIs, uri)
	}
	if err := r.store.PutStudent(*student); err != nil {
		return fmt.Errorf("failed to store student '%s': %w", address, err)
	}
	return nil
}

// GetStudentDetails returns every certificate posted for studentCaller in posting order and
// emits one StudentDetailsRetrieved per certificate.
func (r *Registry) GetStudentDetails(studentCaller string) ([]model.CertificateView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, err := r.admin(); err != nil {
		return nil, fmt.Errorf("GetStudentDetails: %w", err)
	}
	certs, err := r.store.CertificatesByStudent(studentCaller)
	if err != nil {
		return nil, fmt.Errorf("GetStudentDetails: failed to read certificates: %w", err)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("GetStudentDetails: %w for student '%s'", ErrCertificateNotFound, studentCaller)
	}

	views := make([]model.CertificateView, 0, len(certs))
	for _, c := range certs {
		r.events.Publish(model.StudentDetailsRetrieved{
			StudentName:     c.StudentName,
			StudentIdentity: c.StudentIdentity,
			CollegeName:     c.CollegeName,
			Hash:            c.Hash,
			URL:             c.URL,
			CertificateType: c.CertificateType,
			IssuerName:      c.IssuerName,
		})
		views = append(views, c.View())
	}
	logger.Debugf("GetStudentDetails: returning %d certificates for '%s'", len(views), studentCaller)
	return views, nil
}

// StudentRecord returns the student aggregate for studentCaller.
func (r *Registry) StudentRecord(studentCaller string) (*model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, err := r.admin(); err != nil {
		return nil, fmt.Errorf("StudentRecord: %w", err)
	}
	student, err := r.store.Student(studentCaller)
	if err != nil {
		return nil, fmt.Errorf("StudentRecord: failed to read student '%s': %w", studentCaller, err)
	}
	if student == nil {
		return nil, fmt.Errorf("StudentRecord: %w for student '%s'", ErrCertificateNotFound, studentCaller)
	}
	return student, nil
}
