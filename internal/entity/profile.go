// ABOUTME: Profile node, an upsert-only record owned by a user
// ABOUTME: Written in full on every upsert; there is no partial update

package entity

// Profile is the public card of a user.
type Profile struct {
	ID            ID[Profile] `json:"id"`
	Name          string      `json:"name"`
	Surname       string      `json:"surname"`
	City          string      `json:"city"`
	Bio           string      `json:"bio"`
	PortfolioURLs []string    `json:"portfolio_urls"`
}

func (Profile) Table() string { return "profile" }

func (p Profile) RecordID() RecordID { return p.ID.Record() }

// UpsertProfile replaces every field of a profile.
type UpsertProfile struct {
	Name          string   `json:"name"`
	Surname       string   `json:"surname"`
	City          string   `json:"city"`
	Bio           string   `json:"bio"`
	PortfolioURLs []string `json:"portfolio_urls"`
}

// ToEntity builds the stored profile for id. The result depends only on u and
// id, so repeating an upsert leaves the stored profile unchanged.
func (u UpsertProfile) ToEntity(id ID[Profile]) Profile {
	urls := u.PortfolioURLs
	if urls == nil {
		urls = []string{}
	}
	return Profile{
		ID:            id,
		Name:          u.Name,
		Surname:       u.Surname,
		City:          u.City,
		Bio:           u.Bio,
		PortfolioURLs: urls,
	}
}
