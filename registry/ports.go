package registry

import (
	"time"

	"certregistry/model"
)

// Store persists the registry collections. Reads must observe writes made earlier
// within the same operation. Sequences are returned in insertion order.
type Store interface {
	Admin() (string, bool, error)
	SetAdmin(admin string) error

	Institutes() ([]model.Institute, error)
	AppendInstitute(institute model.Institute) error

	Certificates() ([]model.Certificate, error)
	CertificatesByStudent(studentIdentity string) ([]model.Certificate, error)
	HasCertificateHash(hash string) (bool, error)
	AppendCertificate(certificate model.Certificate) error

	// Student returns nil, nil when no record exists for the address.
	Student(address string) (*model.Student, error)
	PutStudent(student model.Student) error
	Students() ([]model.Student, error)
}

// Clock supplies the registry time. Monotonicity is not required.
type Clock interface {
	Now() (time.Time, error)
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() (time.Time, error)

func (f ClockFunc) Now() (time.Time, error) { return f() }

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() (time.Time, error) { return time.Now(), nil }

// Publisher delivers notifications to external observers. Publish must not block on
// acknowledgment and has no way to fail the calling operation.
type Publisher interface {
	Publish(event model.Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(event model.Event)

func (f PublisherFunc) Publish(event model.Event) { f(event) }

type discardPublisher struct{}

func (discardPublisher) Publish(model.Event) {}
