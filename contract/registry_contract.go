package contract

import (
	"fmt"

	"certregistry/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("certregistry.contract")

// Constants for input validation
const (
	maxStringInputLength = 256
	maxURLLength         = 1024
)

// CertificateRegistryContract records institutes and the certificates they issue to students.
// @contract:CertificateRegistryContract
type CertificateRegistryContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
func (s *CertificateRegistryContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("CertificateRegistryContract Instantiated/Upgraded")
}

// --- Admin Operations ---

// Initialize makes the caller the registry admin. It succeeds once per ledger.
func (s *CertificateRegistryContract) Initialize(ctx contractapi.TransactionContextInterface) error {
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}
	logger.Infof("Chaincode Call: Initialize by '%s' (MSP '%s')", caller, callerMSPID(ctx))
	reg, _, err := newTxRegistry(ctx)
	if err != nil {
		return err
	}
	return reg.Initialize(caller)
}

func (s *CertificateRegistryContract) GetAdmin(ctx contractapi.TransactionContextInterface) (string, error) {
	logger.Debug("Chaincode Call: GetAdmin")
	reg, _, err := newTxRegistry(ctx)
	if err != nil {
		return "", err
	}
	return reg.Admin()
}

func (s *CertificateRegistryContract) RegisterInstitute(ctx contractapi.TransactionContextInterface, name, acronym, instituteIdentity string) error {
	logger.Infof("Chaincode Call: RegisterInstitute '%s' (%s) for '%s'", name, acronym, instituteIdentity)
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return fmt.Errorf("RegisterInstitute: %w", err)
	}
	if err := validateRequiredString(name, "name", maxStringInputLength); err != nil {
		return fmt.Errorf("RegisterInstitute: %w", err)
	}
	if err := validateRequiredString(acronym, "acronym", maxStringInputLength); err != nil {
		return fmt.Errorf("RegisterInstitute: %w", err)
	}
	if err := validateRequiredString(instituteIdentity, "instituteIdentity", maxStringInputLength); err != nil {
		return fmt.Errorf("RegisterInstitute: %w", err)
	}
	if !isValidX509ID(instituteIdentity) {
		idLogger.Warningf("RegisterInstitute: identity '%s' does not appear to be a standard X.509 format.", instituteIdentity)
	}
	reg, _, err := newTxRegistry(ctx)
	if err != nil {
		return err
	}
	return reg.RegisterInstitute(caller, name, acronym, instituteIdentity)
}

// GetInstituteDetails returns the caller's institute record. A transaction carries one signer,
// which is passed as both the institute and the admin identity.
func (s *CertificateRegistryContract) GetInstituteDetails(ctx contractapi.TransactionContextInterface) (*model.InstituteView, error) {
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetInstituteDetails: %w", err)
	}
	logger.Debugf("Chaincode Call: GetInstituteDetails by '%s'", caller)
	reg, events, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	view, err := reg.GetInstituteDetails(caller, caller)
	if err != nil {
		return nil, err
	}
	if err := events.flush(); err != nil {
		return nil, err
	}
	return view, nil
}

// GetInstituteByIdentity is the admin lookup of the institute registered under instituteIdentity.
func (s *CertificateRegistryContract) GetInstituteByIdentity(ctx contractapi.TransactionContextInterface, instituteIdentity string) (*model.InstituteView, error) {
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetInstituteByIdentity: %w", err)
	}
	logger.Debugf("Chaincode Call: GetInstituteByIdentity '%s' by '%s'", instituteIdentity, caller)
	if err := validateRequiredString(instituteIdentity, "instituteIdentity", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("GetInstituteByIdentity: %w", err)
	}
	reg, _, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.InstituteByIdentity(caller, instituteIdentity)
}

func (s *CertificateRegistryContract) ListInstitutes(ctx contractapi.TransactionContextInterface) ([]model.Institute, error) {
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInstitutes: %w", err)
	}
	logger.Debugf("Chaincode Call: ListInstitutes by '%s'", caller)
	reg, events, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	institutes, err := reg.ListInstitutes(caller)
	if err != nil {
		return nil, err
	}
	if err := events.flush(); err != nil {
		return nil, err
	}
	return institutes, nil
}

// --- Institute Operations ---

func (s *CertificateRegistryContract) PostCertificate(ctx contractapi.TransactionContextInterface,
	studentName, studentIdentity, url, hash, certificateType, issuerName string) (*model.Certificate, error) {

	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("PostCertificate: %w", err)
	}
	logger.Infof("Chaincode Call: PostCertificate for student '%s' by '%s'", studentIdentity, caller)
	req := model.PostCertificateRequest{
		StudentName:     studentName,
		StudentIdentity: studentIdentity,
		URL:             url,
		Hash:            hash,
		CertificateType: certificateType,
		IssuerName:      issuerName,
	}
	if err := validatePostCertificateArgs(req); err != nil {
		return nil, fmt.Errorf("PostCertificate: %w", err)
	}
	reg, events, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	cert, err := reg.PostCertificate(caller, req)
	if err != nil {
		return nil, err
	}
	if err := events.flush(); err != nil {
		return nil, err
	}
	return cert, nil
}

// BulkUpload posts a JSON array of certificates under a shared issuer name. Items whose hash is
// already recorded are skipped and reported in the result.
func (s *CertificateRegistryContract) BulkUpload(ctx contractapi.TransactionContextInterface, itemsJSON, issuerName string) (*model.BulkUploadResult, error) {
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("BulkUpload: %w", err)
	}
	logger.Infof("Chaincode Call: BulkUpload by '%s'", caller)
	if err := validateRequiredString(issuerName, "issuerName", maxStringInputLength); err != nil {
		return nil, fmt.Errorf("BulkUpload: %w", err)
	}
	items, err := parseBulkItems(itemsJSON)
	if err != nil {
		return nil, fmt.Errorf("BulkUpload: %w", err)
	}
	reg, events, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	result, err := reg.BulkUpload(caller, items, issuerName)
	if err != nil {
		return nil, err
	}
	if err := events.flush(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- Student Operations ---

// GetStudentDetails returns every certificate issued to the caller, in posting order.
func (s *CertificateRegistryContract) GetStudentDetails(ctx contractapi.TransactionContextInterface) ([]model.CertificateView, error) {
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudentDetails: %w", err)
	}
	logger.Debugf("Chaincode Call: GetStudentDetails by '%s'", caller)
	reg, events, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	views, err := reg.GetStudentDetails(caller)
	if err != nil {
		return nil, err
	}
	if err := events.flush(); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *CertificateRegistryContract) GetStudentRecord(ctx contractapi.TransactionContextInterface) (*model.Student, error) {
	logger.Debugf("Chaincode Call: GetStudentRecord by '%s'", mustGetCallerFullID(ctx))
	caller, err := getCurrentIdentityFullID(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudentRecord: %w", err)
	}
	reg, _, err := newTxRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.StudentRecord(caller)
}
