// File: model/institutes.go
package model

// Institute is an issuing body onboarded by the registry admin.
type Institute struct {
	ObjectType        string `json:"objectType,omitempty"` // "Institute" when stored in world state
	Name              string `json:"name"`                 // Display name, copied onto certificates at post time
	Acronym           string `json:"acronym"`
	InstituteIdentity string `json:"instituteIdentity"` // Identity the institute signs with
}

// InstituteView is the read model returned by institute lookups.
type InstituteView struct {
	Name              string `json:"name"`
	Acronym           string `json:"acronym"`
	InstituteIdentity string `json:"instituteIdentity"`
}

// View returns the read model of the institute.
func (i Institute) View() InstituteView {
	return InstituteView{
		Name:              i.Name,
		Acronym:           i.Acronym,
		InstituteIdentity: i.InstituteIdentity,
	}
}
