package registry

import (
	"fmt"

	"certregistry/model"
)

// BulkUpload posts up to MaxBulkItems certificates in input order. An item whose hash is
// already present, including hashes added earlier in the same batch, is skipped and its
// student name recorded in the result. Skips do not abort the batch and earlier successes
// are kept. Each success emits CertificatePosted; one BulkUploadFailed follows when any
// item was skipped.
func (r *Registry) BulkUpload(caller string, items []model.BulkUploadItem, issuerName string) (*model.BulkUploadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, err := r.requireInstitute(caller)
	if err != nil {
		return nil, fmt.Errorf("BulkUpload: %w", err)
	}
	if len(items) > MaxBulkItems {
		return nil, fmt.Errorf("BulkUpload: %w: %d items, maximum is %d", ErrTupleSizeExceeded, len(items), MaxBulkItems)
	}

	result := &model.BulkUploadResult{
		Posted:        []string{},
		FailedUploads: []string{},
	}
	for i, item := range items {
		exists, err := r.store.HasCertificateHash(item.Hash)
		if err != nil {
			return nil, fmt.Errorf("BulkUpload: failed to check hash of item %d: %w", i, err)
		}
		if exists {
			logger.Warningf("BulkUpload: item %d for student '%s' skipped, hash '%s' already recorded", i, item.StudentName, item.Hash)
			result.FailedUploads = append(result.FailedUploads, item.StudentName)
			continue
		}

		ts, err := r.now()
		if err != nil {
			return nil, fmt.Errorf("BulkUpload: item %d: %w", i, err)
		}
		cert := model.Certificate{
			StudentName:     item.StudentName,
			StudentIdentity: item.StudentIdentity,
			CollegeName:     inst.Name,
			Hash:            item.Hash,
			URL:             item.URI,
			CertificateType: item.CertificateType,
			IssuerName:      issuerName,
			WitnessIdentity: caller,
			Timestamp:       ts,
		}
		if err := r.store.AppendCertificate(cert); err != nil {
			return nil, fmt.Errorf("BulkUpload: failed to store item %d: %w", i, err)
		}
		if err := r.recordStudent(item.StudentIdentity, item.StudentName, inst.Name, item.URI); err != nil {
			return nil, fmt.Errorf("BulkUpload: item %d: %w", i, err)
		}
		r.events.Publish(model.CertificatePosted{
			Hash:              item.Hash,
			InstituteIdentity: caller,
			StudentName:       item.StudentName,
			IssuerName:        issuerName,
		})
		result.Posted = append(result.Posted, item.Hash)
	}

	result.FailedCount = uint64(len(result.FailedUploads))
	if result.FailedCount > 0 {
		failed := make([]string, len(result.FailedUploads))
		copy(failed, result.FailedUploads)
		r.events.Publish(model.BulkUploadFailed{
			FailedUploads: failed,
			FailedCount:   result.FailedCount,
		})
	}
	logger.Infof("BulkUpload by '%s': %d posted, %d skipped", inst.Name, len(result.Posted), result.FailedCount)
	return result, nil
}
