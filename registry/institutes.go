package registry

import (
	"fmt"

	"certregistry/model"
)

// RegisterInstitute appends an institute. Only the admin may call it. Identities are not
// deduplicated: every entry registered under an identity authorizes posting.
func (r *Registry) RegisterInstitute(caller, name, acronym, instituteIdentity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireAdmin(caller); err != nil {
		return fmt.Errorf("RegisterInstitute: %w", err)
	}
	inst := model.Institute{
		Name:              name,
		Acronym:           acronym,
		InstituteIdentity: instituteIdentity,
	}
	if err := r.store.AppendInstitute(inst); err != nil {
		return fmt.Errorf("RegisterInstitute: failed to store institute '%s': %w", name, err)
	}
	logger.Infof("Institute '%s' (%s) registered with identity '%s' by admin '%s'", name, acronym, instituteIdentity, caller)
	return nil
}

// GetInstituteDetails returns the first institute whose identity is instituteCaller, or
// the first institute of the collection when adminCaller is the admin. The admin term does
// not depend on the institute examined, so an admin always receives the first entry.
// Use InstituteByIdentity to look up a specific institute as admin.
func (r *Registry) GetInstituteDetails(instituteCaller, adminCaller string) (*model.InstituteView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, err := r.admin()
	if err != nil {
		return nil, fmt.Errorf("GetInstituteDetails: %w", err)
	}
	institutes, err := r.store.Institutes()
	if err != nil {
		return nil, fmt.Errorf("GetInstituteDetails: failed to read institutes: %w", err)
	}

	isAdmin := adminCaller == admin
	for _, inst := range institutes {
		if inst.InstituteIdentity == instituteCaller || isAdmin {
			view := inst.View()
			r.events.Publish(model.InstituteDetailsRetrieved{
				Name:              view.Name,
				Acronym:           view.Acronym,
				InstituteIdentity: view.InstituteIdentity,
			})
			logger.Debugf("GetInstituteDetails: returning '%s' to institute caller '%s' (admin: %t)", view.Name, instituteCaller, isAdmin)
			return &view, nil
		}
	}
	return nil, fmt.Errorf("GetInstituteDetails: %w for caller '%s'", ErrInstituteNotFound, instituteCaller)
}

// InstituteByIdentity lets the admin look up the first institute registered under
// instituteIdentity. It emits InstituteDetailsRetrieved like GetInstituteDetails.
func (r *Registry) InstituteByIdentity(adminCaller, instituteIdentity string) (*model.InstituteView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.requireAdmin(adminCaller); err != nil {
		return nil, fmt.Errorf("InstituteByIdentity: %w", err)
	}
	institutes, err := r.store.Institutes()
	if err != nil {
		return nil, fmt.Errorf("InstituteByIdentity: failed to read institutes: %w", err)
	}
	for _, inst := range institutes {
		if inst.InstituteIdentity != instituteIdentity {
			continue
		}
		view := inst.View()
		r.events.Publish(model.InstituteDetailsRetrieved{
			Name:              view.Name,
			Acronym:           view.Acronym,
			InstituteIdentity: view.InstituteIdentity,
		})
		return &view, nil
	}
	return nil, fmt.Errorf("InstituteByIdentity: %w for identity '%s'", ErrInstituteNotFound, instituteIdentity)
}

// ListInstitutes returns every institute in registration order. Admin only.
func (r *Registry) ListInstitutes(adminCaller string) ([]model.Institute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.requireAdmin(adminCaller); err != nil {
		return nil, fmt.Errorf("ListInstitutes: %w", err)
	}
	institutes, err := r.store.Institutes()
	if err != nil {
		return nil, fmt.Errorf("ListInstitutes: failed to read institutes: %w", err)
	}

	snapshot := make([]model.Institute, len(institutes))
	copy(snapshot, institutes)
	r.events.Publish(model.InstitutesListed{Institutes: snapshot})

	result := make([]model.Institute, len(institutes))
	copy(result, institutes)
	logger.Debugf("ListInstitutes: admin '%s' listed %d institutes", adminCaller, len(result))
	return result, nil
}
