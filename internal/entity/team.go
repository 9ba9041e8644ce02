// ABOUTME: Team node led by a participant
// ABOUTME: Members join through member_of edges

package entity

import "time"

// Team is a hackathon team.
type Team struct {
	ID          ID[Team]  `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Lead        ID[User]  `json:"lead"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Team) Table() string { return "team" }

func (t Team) RecordID() RecordID { return t.ID.Record() }

type CreateTeam struct {
	Name        string
	Description *string
	Lead        ID[User]
}

func (c CreateTeam) Build() Team {
	return Team{
		ID:          NewID[Team](),
		Name:        c.Name,
		Description: c.Description,
		Lead:        c.Lead,
		CreatedAt:   time.Now().UTC(),
	}
}

type TeamUpdate struct {
	Name        Opt[string]           `json:"name,omitzero"`
	Description Opt[Nullable[string]] `json:"description,omitzero"`
	Lead        Opt[ID[User]]         `json:"lead,omitzero"`
}

func (p TeamUpdate) Apply(t *Team) {
	p.Name.ApplyTo(&t.Name)
	ApplyNullable(p.Description, &t.Description)
	p.Lead.ApplyTo(&t.Lead)
}
