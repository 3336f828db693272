package registry

import "certregistry/model"

// MemoryStore keeps the registry collections in process memory. The hash and address
// maps are lookup indexes only; the slices define insertion order.
//
// MemoryStore does no locking of its own. The Registry that owns it serializes access.
type MemoryStore struct {
	admin       string
	initialized bool

	institutes   []model.Institute
	certificates []model.Certificate
	students     []model.Student

	hashCounts   map[string]int
	studentIndex map[string]int
	byStudent    map[string][]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashCounts:   make(map[string]int),
		studentIndex: make(map[string]int),
		byStudent:    make(map[string][]int),
	}
}

func (m *MemoryStore) Admin() (string, bool, error) {
	return m.admin, m.initialized, nil
}

func (m *MemoryStore) SetAdmin(admin string) error {
	m.admin = admin
	m.initialized = true
	return nil
}

func (m *MemoryStore) Institutes() ([]model.Institute, error) {
	out := make([]model.Institute, len(m.institutes))
	copy(out, m.institutes)
	return out, nil
}

func (m *MemoryStore) AppendInstitute(institute model.Institute) error {
	m.institutes = append(m.institutes, institute)
	return nil
}

func (m *MemoryStore) Certificates() ([]model.Certificate, error) {
	out := make([]model.Certificate, len(m.certificates))
	copy(out, m.certificates)
	return out, nil
}

func (m *MemoryStore) CertificatesByStudent(studentIdentity string) ([]model.Certificate, error) {
	idx := m.byStudent[studentIdentity]
	out := make([]model.Certificate, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.certificates[i])
	}
	return out, nil
}

func (m *MemoryStore) HasCertificateHash(hash string) (bool, error) {
	return m.hashCounts[hash] > 0, nil
}

func (m *MemoryStore) AppendCertificate(certificate model.Certificate) error {
	m.certificates = append(m.certificates, certificate)
	m.hashCounts[certificate.Hash]++
	m.byStudent[certificate.StudentIdentity] = append(m.byStudent[certificate.StudentIdentity], len(m.certificates)-1)
	return nil
}

func (m *MemoryStore) Student(address string) (*model.Student, error) {
	i, ok := m.studentIndex[address]
	if !ok {
		return nil, nil
	}
	s := cloneStudent(m.students[i])
	return &s, nil
}

func (m *MemoryStore) PutStudent(student model.Student) error {
	s := cloneStudent(student)
	if i, ok := m.studentIndex[student.Address]; ok {
		m.students[i] = s
		return nil
	}
	m.studentIndex[student.Address] = len(m.students)
	m.students = append(m.students, s)
	return nil
}

func (m *MemoryStore) Students() ([]model.Student, error) {
	out := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, cloneStudent(s))
	}
	return out, nil
}

func cloneStudent(s model.Student) model.Student {
	s.InstituteNames = append([]string(nil), s.InstituteNames...)
	s.URIs = append([]string(nil), s.URIs...)
	return s
}
