package contract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"certregistry/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Object types for composite keys, also usable as 'docType' or 'objectType' in CouchDB.
const (
	adminObjectType              = "RegistryAdmin"      // Admin identity. No attributes.
	counterObjectType            = "Counter"            // Next sequence number. Attribute: record kind.
	instituteObjectType          = "Institute"          // Institute JSON. Attribute: sequence.
	certificateObjectType        = "Certificate"        // Certificate JSON. Attribute: sequence.
	certificateHashObjectType    = "CertificateHash"    // Count of certificates per hash. Attribute: hash.
	studentCertificateObjectType = "StudentCertificate" // Certificate key per student. Attributes: address, sequence.
	studentObjectType            = "Student"            // Student JSON. Attribute: address.
)

// ledgerStore implements registry.Store over the Fabric world state of one transaction.
//
// GetState does not observe PutState calls made earlier in the same transaction, so every
// write is mirrored in pending and reads consult pending first.
type ledgerStore struct {
	stub    shim.ChaincodeStubInterface
	pending map[string][]byte
}

func newLedgerStore(stub shim.ChaincodeStubInterface) *ledgerStore {
	return &ledgerStore{stub: stub, pending: make(map[string][]byte)}
}

type stateEntry struct {
	key   string
	value []byte
}

// --- Raw state access ---

func (l *ledgerStore) get(key string) ([]byte, error) {
	if v, ok := l.pending[key]; ok {
		return v, nil
	}
	v, err := l.stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("ledger error reading key '%s': %w", key, err)
	}
	return v, nil
}

func (l *ledgerStore) put(key string, value []byte) error {
	if err := l.stub.PutState(key, value); err != nil {
		return fmt.Errorf("failed to write key '%s': %w", key, err)
	}
	l.pending[key] = value
	return nil
}

func (l *ledgerStore) putJSON(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record for key '%s': %w", key, err)
	}
	return l.put(key, b)
}

// scan returns every entry under the partial composite key, committed and pending,
// in key order.
func (l *ledgerStore) scan(objectType string, attributes []string) ([]stateEntry, error) {
	prefix, err := l.stub.CreateCompositeKey(objectType, attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to create partial key for '%s': %w", objectType, err)
	}
	iterator, err := l.stub.GetStateByPartialCompositeKey(objectType, attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to get iterator for '%s': %w", objectType, err)
	}
	defer iterator.Close()

	seen := make(map[string]bool)
	entries := []stateEntry{}
	for iterator.HasNext() {
		kv, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate '%s': %w", objectType, err)
		}
		seen[kv.Key] = true
		value := kv.Value
		if v, ok := l.pending[kv.Key]; ok {
			value = v
		}
		entries = append(entries, stateEntry{key: kv.Key, value: value})
	}
	for key, value := range l.pending {
		if !seen[key] && strings.HasPrefix(key, prefix) {
			entries = append(entries, stateEntry{key: key, value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries, nil
}

// nextSequence returns the next sequence number for kind and advances the counter.
func (l *ledgerStore) nextSequence(kind string) (string, error) {
	key, err := l.stub.CreateCompositeKey(counterObjectType, []string{kind})
	if err != nil {
		return "", fmt.Errorf("failed to create counter key for '%s': %w", kind, err)
	}
	raw, err := l.get(key)
	if err != nil {
		return "", err
	}
	var next uint64
	if raw != nil {
		next, err = strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return "", fmt.Errorf("corrupt counter for '%s': %w", kind, err)
		}
	}
	if err := l.put(key, []byte(strconv.FormatUint(next+1, 10))); err != nil {
		return "", err
	}
	return formatSequence(next), nil
}

// formatSequence zero-pads seq so lexical key order equals insertion order.
func formatSequence(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}

// --- registry.Store ---

func (l *ledgerStore) Admin() (string, bool, error) {
	key, err := l.stub.CreateCompositeKey(adminObjectType, []string{})
	if err != nil {
		return "", false, fmt.Errorf("failed to create admin key: %w", err)
	}
	raw, err := l.get(key)
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}
	return string(raw), true, nil
}

func (l *ledgerStore) SetAdmin(admin string) error {
	key, err := l.stub.CreateCompositeKey(adminObjectType, []string{})
	if err != nil {
		return fmt.Errorf("failed to create admin key: %w", err)
	}
	return l.put(key, []byte(admin))
}

func (l *ledgerStore) Institutes() ([]model.Institute, error) {
	entries, err := l.scan(instituteObjectType, []string{})
	if err != nil {
		return nil, err
	}
	institutes := make([]model.Institute, 0, len(entries))
	for _, e := range entries {
		var inst model.Institute
		if err := json.Unmarshal(e.value, &inst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal institute at key '%s': %w", e.key, err)
		}
		institutes = append(institutes, inst)
	}
	return institutes, nil
}

func (l *ledgerStore) AppendInstitute(institute model.Institute) error {
	seq, err := l.nextSequence(instituteObjectType)
	if err != nil {
		return err
	}
	key, err := l.stub.CreateCompositeKey(instituteObjectType, []string{seq})
	if err != nil {
		return fmt.Errorf("failed to create institute key: %w", err)
	}
	institute.ObjectType = instituteObjectType
	return l.putJSON(key, institute)
}

func (l *ledgerStore) Certificates() ([]model.Certificate, error) {
	entries, err := l.scan(certificateObjectType, []string{})
	if err != nil {
		return nil, err
	}
	certs := make([]model.Certificate, 0, len(entries))
	for _, e := range entries {
		var c model.Certificate
		if err := json.Unmarshal(e.value, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certificate at key '%s': %w", e.key, err)
		}
		certs = append(certs, c)
	}
	return certs, nil
}

func (l *ledgerStore) CertificatesByStudent(studentIdentity string) ([]model.Certificate, error) {
	entries, err := l.scan(studentCertificateObjectType, []string{studentIdentity})
	if err != nil {
		return nil, err
	}
	certs := make([]model.Certificate, 0, len(entries))
	for _, e := range entries {
		certKey := string(e.value)
		raw, err := l.get(certKey)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, fmt.Errorf("student index '%s' points to missing certificate '%s'", e.key, certKey)
		}
		var c model.Certificate
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certificate at key '%s': %w", certKey, err)
		}
		certs = append(certs, c)
	}
	return certs, nil
}

func (l *ledgerStore) HasCertificateHash(hash string) (bool, error) {
	key, err := l.stub.CreateCompositeKey(certificateHashObjectType, []string{hash})
	if err != nil {
		return false, fmt.Errorf("failed to create hash key for '%s': %w", hash, err)
	}
	raw, err := l.get(key)
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

func (l *ledgerStore) AppendCertificate(certificate model.Certificate) error {
	seq, err := l.nextSequence(certificateObjectType)
	if err != nil {
		return err
	}
	certKey, err := l.stub.CreateCompositeKey(certificateObjectType, []string{seq})
	if err != nil {
		return fmt.Errorf("failed to create certificate key: %w", err)
	}
	certificate.ObjectType = certificateObjectType
	if err := l.putJSON(certKey, certificate); err != nil {
		return err
	}

	hashKey, err := l.stub.CreateCompositeKey(certificateHashObjectType, []string{certificate.Hash})
	if err != nil {
		return fmt.Errorf("failed to create hash key for '%s': %w", certificate.Hash, err)
	}
	raw, err := l.get(hashKey)
	if err != nil {
		return err
	}
	var count uint64
	if raw != nil {
		if count, err = strconv.ParseUint(string(raw), 10, 64); err != nil {
			return fmt.Errorf("corrupt hash count for '%s': %w", certificate.Hash, err)
		}
	}
	if err := l.put(hashKey, []byte(strconv.FormatUint(count+1, 10))); err != nil {
		return err
	}

	indexKey, err := l.stub.CreateCompositeKey(studentCertificateObjectType, []string{certificate.StudentIdentity, seq})
	if err != nil {
		return fmt.Errorf("failed to create student index key for '%s': %w", certificate.StudentIdentity, err)
	}
	return l.put(indexKey, []byte(certKey))
}

func (l *ledgerStore) Student(address string) (*model.Student, error) {
	key, err := l.stub.CreateCompositeKey(studentObjectType, []string{address})
	if err != nil {
		return nil, fmt.Errorf("failed to create student key for '%s': %w", address, err)
	}
	raw, err := l.get(key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var s model.Student
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal student '%s': %w", address, err)
	}
	return &s, nil
}

func (l *ledgerStore) PutStudent(student model.Student) error {
	key, err := l.stub.CreateCompositeKey(studentObjectType, []string{student.Address})
	if err != nil {
		return fmt.Errorf("failed to create student key for '%s': %w", student.Address, err)
	}
	student.ObjectType = studentObjectType
	return l.putJSON(key, student)
}

func (l *ledgerStore) Students() ([]model.Student, error) {
	entries, err := l.scan(studentObjectType, []string{})
	if err != nil {
		return nil, err
	}
	students := make([]model.Student, 0, len(entries))
	for _, e := range entries {
		var s model.Student
		if err := json.Unmarshal(e.value, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal student at key '%s': %w", e.key, err)
		}
		students = append(students, s)
	}
	return students, nil
}
