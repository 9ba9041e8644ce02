// ABOUTME: Specialization node naming a role a user can fill, such as "backend"
// ABOUTME: Created by organizators, referenced by has_experience_as edges

package entity

// Specialization is a team role such as "frontend" or "designer".
type Specialization struct {
	ID   ID[Specialization] `json:"id"`
	Name string             `json:"name"`
}

func (Specialization) Table() string { return "specialization" }

func (s Specialization) RecordID() RecordID { return s.ID.Record() }

type CreateSpecialization struct {
	Name string `json:"name"`
}

func (c CreateSpecialization) Build() Specialization {
	return Specialization{ID: NewID[Specialization](), Name: c.Name}
}

type SpecializationUpdate struct {
	Name Opt[string] `json:"name,omitzero"`
}

func (p SpecializationUpdate) Apply(s *Specialization) {
	p.Name.ApplyTo(&s.Name)
}
