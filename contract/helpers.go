package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"certregistry/model"
	"certregistry/registry"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Core Helper Methods (used across multiple operations) ---

// txClock reads time from the transaction timestamp so every endorser sees the same value.
func txClock(ctx contractapi.TransactionContextInterface) registry.Clock {
	return registry.ClockFunc(func() (time.Time, error) {
		ts, err := ctx.GetStub().GetTxTimestamp()
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
		}
		return ts.AsTime(), nil
	})
}

// newTxRegistry binds a Registry to the world state of the current transaction.
func newTxRegistry(ctx contractapi.TransactionContextInterface) (*registry.Registry, *ledgerPublisher, error) {
	stub := ctx.GetStub()
	publisher := newLedgerPublisher(stub)
	reg, err := registry.New(newLedgerStore(stub), registry.WithClock(txClock(ctx)), registry.WithPublisher(publisher))
	if err != nil {
		return nil, nil, err
	}
	return reg, publisher, nil
}

// --- Validation Helper Functions ---

func validateRequiredString(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%w: %s cannot be empty", registry.ErrInvalidArgument, field)
	}
	if len(input) > max {
		return fmt.Errorf("%w: %s exceeds max length %d", registry.ErrInvalidArgument, field, max)
	}
	return nil
}

func validatePostCertificateArgs(req model.PostCertificateRequest) error {
	checks := []struct {
		value, field string
		max          int
	}{
		{req.StudentName, "studentName", maxStringInputLength},
		{req.StudentIdentity, "studentIdentity", maxStringInputLength},
		{req.URL, "url", maxURLLength},
		{req.Hash, "hash", maxStringInputLength},
		{req.CertificateType, "certificateType", maxStringInputLength},
		{req.IssuerName, "issuerName", maxStringInputLength},
	}
	for _, c := range checks {
		if err := validateRequiredString(c.value, c.field, c.max); err != nil {
			return err
		}
	}
	return nil
}

// parseBulkItems decodes the JSON item array of a bulk upload and validates each item.
// The item count is left to the registry so authorization is checked first.
func parseBulkItems(itemsJSON string) ([]model.BulkUploadItem, error) {
	if strings.TrimSpace(itemsJSON) == "" {
		return nil, fmt.Errorf("%w: items JSON cannot be empty", registry.ErrInvalidArgument)
	}
	var items []model.BulkUploadItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("%w: invalid items JSON: %v", registry.ErrInvalidArgument, err)
	}
	for i, item := range items {
		checks := []struct {
			value, field string
			max          int
		}{
			{item.StudentName, "studentName", maxStringInputLength},
			{item.StudentIdentity, "studentIdentity", maxStringInputLength},
			{item.Hash, "hash", maxStringInputLength},
			{item.URI, "uri", maxURLLength},
			{item.CertificateType, "certificateType", maxStringInputLength},
		}
		for _, c := range checks {
			if err := validateRequiredString(c.value, fmt.Sprintf("items[%d].%s", i, c.field), c.max); err != nil {
				return nil, err
			}
		}
	}
	return items, nil
}
