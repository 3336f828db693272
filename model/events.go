package model

// Event names as delivered to notification sinks.
const (
	EventInstituteDetailsRetrieved = "InstituteDetailsRetrieved"
	EventStudentDetailsRetrieved   = "StudentDetailsRetrieved"
	EventInstitutesListed          = "InstitutesListed"
	EventCertificatePosted         = "CertificatePosted"
	EventBulkUploadFailed          = "BulkUploadFailed"
)

// Event is a structured notification emitted by the registry.
type Event interface {
	EventName() string
}

type InstituteDetailsRetrieved struct {
	Name              string `json:"name"`
	Acronym           string `json:"acronym"`
	InstituteIdentity string `json:"instituteIdentity"`
}

func (InstituteDetailsRetrieved) EventName() string { return EventInstituteDetailsRetrieved }

type StudentDetailsRetrieved struct {
	StudentName     string `json:"studentName"`
	StudentIdentity string `json:"studentIdentity"`
	CollegeName     string `json:"collegeName"`
	Hash            string `json:"hash"`
	URL             string `json:"url"`
	CertificateType string `json:"certificateType"`
	IssuerName      string `json:"issuerName"`
}

func (StudentDetailsRetrieved) EventName() string { return EventStudentDetailsRetrieved }

// InstitutesListed carries a snapshot of the institute collection.
type InstitutesListed struct {
	Institutes []Institute `json:"institutes"`
}

func (InstitutesListed) EventName() string { return EventInstitutesListed }

type CertificatePosted struct {
	Hash              string `json:"hash"`
	InstituteIdentity string `json:"instituteIdentity"`
	StudentName       string `json:"studentName"`
	IssuerName        string `json:"issuerName"`
}

func (CertificatePosted) EventName() string { return EventCertificatePosted }

type BulkUploadFailed struct {
	FailedUploads []string `json:"failedUploads"`
	FailedCount   uint64   `json:"failedCount"`
}

func (BulkUploadFailed) EventName() string { return EventBulkUploadFailed }
