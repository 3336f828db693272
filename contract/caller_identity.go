package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var idLogger = flogging.MustGetLogger("certregistry.identity")

func isValidX509ID(id string) bool {
	return strings.HasPrefix(id, "x509::") || strings.HasPrefix(id, "eDUwOTo6") // "eDUwOTo6" is "x509::" base64 encoded
}

// getCurrentIdentityFullID retrieves the full X.509 ID of the current transactor.
func getCurrentIdentityFullID(ctx contractapi.TransactionContextInterface) (string, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	if !isValidX509ID(id) {
		idLogger.Warningf("Current client ID '%s' does not appear to be a standard X.509 format.", id)
	}
	return id, nil
}

// mustGetCallerFullID returns the caller's ID or a placeholder on error. Used for logging.
func mustGetCallerFullID(ctx contractapi.TransactionContextInterface) string {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "ERROR_NIL_CLIENT_IDENTITY"
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		idLogger.Errorf("mustGetCallerFullID: failed to get client identity ID: %v", err)
		return "ERROR_GETTING_CALLER_ID"
	}
	if id == "" {
		return "ERROR_EMPTY_CALLER_ID"
	}
	return id
}

// callerMSPID is informational; an unavailable MSPID is logged and reported as empty.
func callerMSPID(ctx contractapi.TransactionContextInterface) string {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return ""
	}
	mspID, err := clientIdentity.GetMSPID()
	if err != nil {
		idLogger.Debugf("Could not determine MSPID of caller: %v", err)
		return ""
	}
	return mspID
}
