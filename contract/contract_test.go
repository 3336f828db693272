package contract

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certregistry/model"
	"certregistry/registry"
)

const (
	adminID = "x509::CN=admin::CN=ca.registry.example.com"
	mitID   = "x509::CN=mit::CN=ca.registry.example.com"
	aliceID = "x509::CN=alice::CN=ca.registry.example.com"
	bobID   = "x509::CN=bob::CN=ca.registry.example.com"
)

// fakeIdentity satisfies cid.ClientIdentity for a fixed ID.
type fakeIdentity struct {
	id string
}

func (f fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f fakeIdentity) GetMSPID() (string, error) { return "Org1MSP", nil }
func (f fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f fakeIdentity) AssertAttributeValue(name, _ string) error {
	return fmt.Errorf("attribute '%s' not found", name)
}
func (f fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

type ContractSuite struct {
	suite.Suite
	stub     *shimtest.MockStub
	contract *CertificateRegistryContract
	txs      int
}

func TestContractSuite(t *testing.T) {
	suite.Run(t, new(ContractSuite))
}

func (s *ContractSuite) SetupTest() {
	s.stub = shimtest.NewMockStub("certregistry", nil)
	s.contract = new(CertificateRegistryContract)
	s.txs = 0
	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		s.Require().NoError(s.contract.Initialize(ctx))
	})
	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		s.Require().NoError(s.contract.RegisterInstitute(ctx, "Massachusetts Institute of Technology", "MIT", mitID))
	})
}

// invoke runs fn as one transaction signed by id.
func (s *ContractSuite) invoke(id string, fn func(ctx contractapi.TransactionContextInterface)) {
	s.txs++
	txID := fmt.Sprintf("tx%d", s.txs)
	s.stub.MockTransactionStart(txID)
	defer s.stub.MockTransactionEnd(txID)

	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(s.stub)
	ctx.SetClientIdentity(fakeIdentity{id: id})
	fn(ctx)
}

// drainEvents returns the registry events emitted since the last call.
func (s *ContractSuite) drainEvents() [][]ledgerEvent {
	var batches [][]ledgerEvent
	for {
		select {
		case ev := <-s.stub.ChaincodeEventsChannel:
			s.Require().Equal(registryEventName, ev.EventName)
			var batch []ledgerEvent
			s.Require().NoError(json.Unmarshal(ev.Payload, &batch))
			batches = append(batches, batch)
		default:
			return batches
		}
	}
}

func eventNames(batch []ledgerEvent) []string {
	names := make([]string, 0, len(batch))
	for _, e := range batch {
		names = append(names, e.Name)
	}
	return names
}

func (s *ContractSuite) post(studentName, studentID, hash string) *model.Certificate {
	var cert *model.Certificate
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		var err error
		cert, err = s.contract.PostCertificate(ctx, studentName, studentID,
			"https://certs.example.com/"+hash, hash, "Degree", "Registrar")
		s.Require().NoError(err)
	})
	return cert
}

func (s *ContractSuite) TestInitializeOnce() {
	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		admin, err := s.contract.GetAdmin(ctx)
		s.Require().NoError(err)
		s.Equal(adminID, admin)

		err = s.contract.Initialize(ctx)
		s.ErrorIs(err, registry.ErrAlreadyInitialized)
	})
}

func (s *ContractSuite) TestRegisterInstituteRequiresAdmin() {
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		err := s.contract.RegisterInstitute(ctx, "Oxford", "OX", "x509::CN=oxford")
		s.ErrorIs(err, registry.ErrUnauthorized)
	})
	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		err := s.contract.RegisterInstitute(ctx, "", "OX", "x509::CN=oxford")
		s.ErrorIs(err, registry.ErrInvalidArgument)
	})
}

func (s *ContractSuite) TestPostCertificateAndGetStudentDetails() {
	first := s.post("Alice", aliceID, "h1")
	s.Equal("Massachusetts Institute of Technology", first.CollegeName)
	s.Equal(mitID, first.WitnessIdentity)
	s.Positive(first.Timestamp)
	s.post("Alice", aliceID, "h2")
	s.Empty(s.drainEvents(), "posting a certificate emits no event")

	s.invoke(aliceID, func(ctx contractapi.TransactionContextInterface) {
		views, err := s.contract.GetStudentDetails(ctx)
		s.Require().NoError(err)
		s.Require().Len(views, 2)
		s.Equal("h1", views[0].Hash)
		s.Equal("h2", views[1].Hash)
	})
	batches := s.drainEvents()
	s.Require().Len(batches, 1)
	s.Equal([]string{model.EventStudentDetailsRetrieved, model.EventStudentDetailsRetrieved}, eventNames(batches[0]))

	s.invoke(bobID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.GetStudentDetails(ctx)
		s.ErrorIs(err, registry.ErrCertificateNotFound)
	})
}

func (s *ContractSuite) TestPostCertificateValidation() {
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.PostCertificate(ctx, "Alice", aliceID, "https://certs.example.com/x", "", "Degree", "Registrar")
		s.ErrorIs(err, registry.ErrInvalidArgument)
	})
	s.invoke(aliceID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.PostCertificate(ctx, "Alice", aliceID, "https://certs.example.com/x", "h1", "Degree", "Registrar")
		s.ErrorIs(err, registry.ErrUnauthorized)
	})
}

func (s *ContractSuite) TestGetInstituteDetails() {
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		view, err := s.contract.GetInstituteDetails(ctx)
		s.Require().NoError(err)
		s.Equal("MIT", view.Acronym)
	})
	batches := s.drainEvents()
	s.Require().Len(batches, 1)
	s.Equal([]string{model.EventInstituteDetailsRetrieved}, eventNames(batches[0]))

	s.invoke(bobID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.GetInstituteDetails(ctx)
		s.ErrorIs(err, registry.ErrInstituteNotFound)
	})
	s.Empty(s.drainEvents(), "failed transactions emit nothing")

	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		view, err := s.contract.GetInstituteByIdentity(ctx, mitID)
		s.Require().NoError(err)
		s.Equal(mitID, view.InstituteIdentity)
	})
}

func (s *ContractSuite) TestListInstitutes() {
	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		s.Require().NoError(s.contract.RegisterInstitute(ctx, "University of Oxford", "OX", "x509::CN=oxford"))
	})
	s.invoke(adminID, func(ctx contractapi.TransactionContextInterface) {
		institutes, err := s.contract.ListInstitutes(ctx)
		s.Require().NoError(err)
		s.Require().Len(institutes, 2)
		s.Equal("MIT", institutes[0].Acronym)
		s.Equal("OX", institutes[1].Acronym)
	})
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.ListInstitutes(ctx)
		s.ErrorIs(err, registry.ErrUnauthorized)
	})
}

func (s *ContractSuite) TestBulkUpload() {
	s.post("Alice", aliceID, "existing")
	items := []model.BulkUploadItem{
		{StudentName: "Alice", StudentIdentity: aliceID, Hash: "b1", URI: "https://certs.example.com/b1", CertificateType: "Transcript"},
		{StudentName: "Bob", StudentIdentity: bobID, Hash: "b1", URI: "https://certs.example.com/b1-dup", CertificateType: "Transcript"},
		{StudentName: "Carol", StudentIdentity: "x509::CN=carol", Hash: "existing", URI: "https://certs.example.com/e", CertificateType: "Degree"},
		{StudentName: "Bob", StudentIdentity: bobID, Hash: "b2", URI: "https://certs.example.com/b2", CertificateType: "Degree"},
	}
	raw, err := json.Marshal(items)
	s.Require().NoError(err)

	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		result, err := s.contract.BulkUpload(ctx, string(raw), "Registrar")
		s.Require().NoError(err)
		s.Equal([]string{"b1", "b2"}, result.Posted)
		s.Equal([]string{"Bob", "Carol"}, result.FailedUploads)
		s.Equal(uint64(2), result.FailedCount)
	})
	batches := s.drainEvents()
	s.Require().Len(batches, 1)
	s.Equal([]string{
		model.EventCertificatePosted,
		model.EventCertificatePosted,
		model.EventBulkUploadFailed,
	}, eventNames(batches[0]))

	var failed model.BulkUploadFailed
	s.Require().NoError(json.Unmarshal(batches[0][2].Payload, &failed))
	s.Equal(uint64(2), failed.FailedCount)

	s.invoke(aliceID, func(ctx contractapi.TransactionContextInterface) {
		record, err := s.contract.GetStudentRecord(ctx)
		s.Require().NoError(err)
		s.Equal([]string{"https://certs.example.com/existing", "https://certs.example.com/b1"}, record.URIs)
		s.Equal([]string{"Massachusetts Institute of Technology", "Massachusetts Institute of Technology"}, record.InstituteNames)
	})
}

func (s *ContractSuite) TestBulkUploadRejectsBadInput() {
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.BulkUpload(ctx, "{not json", "Registrar")
		s.ErrorIs(err, registry.ErrInvalidArgument)

		_, err = s.contract.BulkUpload(ctx, `[{"studentName":"Alice"}]`, "Registrar")
		s.ErrorIs(err, registry.ErrInvalidArgument)
	})

	items := make([]model.BulkUploadItem, registry.MaxBulkItems+1)
	for i := range items {
		items[i] = model.BulkUploadItem{
			StudentName:     "Alice",
			StudentIdentity: aliceID,
			Hash:            fmt.Sprintf("h%d", i),
			URI:             "https://certs.example.com/x",
			CertificateType: "Degree",
		}
	}
	raw, err := json.Marshal(items)
	s.Require().NoError(err)
	s.invoke(mitID, func(ctx contractapi.TransactionContextInterface) {
		_, err := s.contract.BulkUpload(ctx, string(raw), "Registrar")
		s.ErrorIs(err, registry.ErrTupleSizeExceeded)
	})
}

// deferredStub hides the writes of the running transaction from GetState and range
// queries until commit, like a peer does.
type deferredStub struct {
	*shimtest.MockStub
	writes map[string][]byte
}

func (d *deferredStub) PutState(key string, value []byte) error {
	d.writes[key] = value
	return nil
}

func (d *deferredStub) commit(t *testing.T, txID string) {
	d.MockStub.MockTransactionStart(txID)
	defer d.MockStub.MockTransactionEnd(txID)
	for k, v := range d.writes {
		require.NoError(t, d.MockStub.PutState(k, v))
	}
	d.writes = make(map[string][]byte)
}

func TestLedgerStoreReadsOwnWrites(t *testing.T) {
	stub := &deferredStub{MockStub: shimtest.NewMockStub("certregistry", nil), writes: make(map[string][]byte)}

	store := newLedgerStore(stub)
	require.NoError(t, store.AppendInstitute(model.Institute{Name: "MIT", InstituteIdentity: mitID}))
	require.NoError(t, store.AppendInstitute(model.Institute{Name: "Oxford", InstituteIdentity: "x509::CN=oxford"}))
	require.NoError(t, store.AppendCertificate(model.Certificate{Hash: "h1", StudentIdentity: aliceID}))

	institutes, err := store.Institutes()
	require.NoError(t, err)
	require.Len(t, institutes, 2)
	assert.Equal(t, "MIT", institutes[0].Name)
	assert.Equal(t, "Oxford", institutes[1].Name)

	exists, err := store.HasCertificateHash("h1")
	require.NoError(t, err)
	assert.True(t, exists)

	certs, err := store.CertificatesByStudent(aliceID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, certificateObjectType, certs[0].ObjectType)

	stub.commit(t, "commit1")

	next := newLedgerStore(stub)
	require.NoError(t, next.AppendInstitute(model.Institute{Name: "ETH", InstituteIdentity: "x509::CN=eth"}))
	institutes, err = next.Institutes()
	require.NoError(t, err)
	require.Len(t, institutes, 3)
	assert.Equal(t, "ETH", institutes[2].Name)

	missing, err := next.Student(bobID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFormatSequenceSortsLexically(t *testing.T) {
	assert.Less(t, formatSequence(9), formatSequence(10))
	assert.Len(t, formatSequence(0), 20)
}
