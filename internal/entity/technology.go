// ABOUTME: Technology node naming a skill users can know
// ABOUTME: Created by organizators, referenced by knows edges

package entity

// Technology is a skill such as "Go" or "PostgreSQL".
type Technology struct {
	ID   ID[Technology] `json:"id"`
	Name string         `json:"name"`
}

func (Technology) Table() string { return "technology" }

func (t Technology) RecordID() RecordID { return t.ID.Record() }

type CreateTechnology struct {
	Name string `json:"name"`
}

func (c CreateTechnology) Build() Technology {
	return Technology{ID: NewID[Technology](), Name: c.Name}
}

type TechnologyUpdate struct {
	Name Opt[string] `json:"name,omitzero"`
}

func (p TechnologyUpdate) Apply(t *Technology) {
	p.Name.ApplyTo(&t.Name)
}
