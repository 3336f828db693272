package model

// Certificate is a single credential issuance. Certificates are immutable once posted.
type Certificate struct {
	ObjectType      string `json:"objectType,omitempty"` // "Certificate" when stored in world state
	StudentName     string `json:"studentName"`
	StudentIdentity string `json:"studentIdentity"`
	CollegeName     string `json:"collegeName"` // Issuing institute's name at post time, not a live reference
	Hash            string `json:"hash"`        // Content fingerprint of the off-registry artifact
	URL             string `json:"url"`
	CertificateType string `json:"certificateType"`
	IssuerName      string `json:"issuerName"`
	WitnessIdentity string `json:"witnessIdentity"` // Institute identity that signed the post
	Timestamp       int64  `json:"timestamp"`       // Registry clock, unix seconds
}

// CertificateView is the read model returned to students.
type CertificateView struct {
	StudentName     string `json:"studentName"`
	StudentIdentity string `json:"studentIdentity"`
	CollegeName     string `json:"collegeName"`
	Hash            string `json:"hash"`
	URL             string `json:"url"`
	CertificateType string `json:"certificateType"`
	IssuerName      string `json:"issuerName"`
	WitnessIdentity string `json:"witnessIdentity"`
	Timestamp       int64  `json:"timestamp"`
}

// View returns the read model of the certificate.
func (c Certificate) View() CertificateView {
	return CertificateView{
		StudentName:     c.StudentName,
		StudentIdentity: c.StudentIdentity,
		CollegeName:     c.CollegeName,
		Hash:            c.Hash,
		URL:             c.URL,
		CertificateType: c.CertificateType,
		IssuerName:      c.IssuerName,
		WitnessIdentity: c.WitnessIdentity,
		Timestamp:       c.Timestamp,
	}
}

// Student aggregates every certificate posted for one identity.
// InstituteNames[i] and URIs[i] belong to the i-th certificate posted for the student.
type Student struct {
	ObjectType     string   `json:"objectType,omitempty"` // "Student" when stored in world state
	Name           string   `json:"name"`                 // Taken from the first certificate, never updated
	Address        string   `json:"address"`
	InstituteNames []string `json:"instituteNames"`
	URIs           []string `json:"uris"`
}

// PostCertificateRequest carries the arguments of a single certificate post.
type PostCertificateRequest struct {
	StudentName     string `json:"studentName"`
	StudentIdentity string `json:"studentIdentity"`
	URL             string `json:"url"`
	Hash            string `json:"hash"`
	CertificateType string `json:"certificateType"`
	IssuerName      string `json:"issuerName"`
}

// BulkUploadItem is one entry of a bulk upload batch. The issuer name is shared by the batch.
type BulkUploadItem struct {
	StudentName     string `json:"studentName"`
	StudentIdentity string `json:"studentIdentity"`
	Hash            string `json:"hash"`
	URI             string `json:"uri"`
	CertificateType string `json:"certificateType"`
}

// BulkUploadResult reports the outcome of a bulk upload. Skipped items are not errors.
type BulkUploadResult struct {
	Posted        []string `json:"posted"`        // Hashes of the certificates created, in input order
	FailedUploads []string `json:"failedUploads"` // Student names of the skipped items, in input order
	FailedCount   uint64   `json:"failedCount"`
}
