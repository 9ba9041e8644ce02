// ABOUTME: Graph relations between records: knows, has_experience_as, member_of, reviewed
// ABOUTME: Each edge id is derived from its endpoints, one edge per ordered pair

package entity

import "time"

// Knows records that a user knows a technology (upsert-only).
type Knows struct {
	ID    ID[Knows]      `json:"id"`
	In    ID[User]       `json:"in"`
	Out   ID[Technology] `json:"out"`
	Level int            `json:"level"`
}

func (Knows) Table() string { return "knows" }

func (k Knows) RecordID() RecordID { return k.ID.Record() }
func (k Knows) InID() ID[User] { return k.In }
func (k Knows) OutID() ID[Technology] { return k.Out }

type UpsertKnows struct {
	Level int `json:"level"`
}

func (u UpsertKnows) ToEdge(in ID[User], out ID[Technology]) Knows {
	return Knows{ID: EdgeID[Knows](in, out), In: in, Out: out, Level: u.Level}
}

// HasExperienceAs records how experienced a user is in a specialization (upsert-only).
type HasExperienceAs struct {
	ID    ID[HasExperienceAs] `json:"id"`
	In    ID[User]            `json:"in"`
	Out   ID[Specialization]  `json:"out"`
	Level int                 `json:"level"`
}

func (HasExperienceAs) Table() string { return "has_experience_as" }

func (h HasExperienceAs) RecordID() RecordID { return h.ID.Record() }
func (h HasExperienceAs) InID() ID[User] { return h.In }
func (h HasExperienceAs) OutID() ID[Specialization] { return h.Out }

type UpsertHasExperienceAs struct {
	Level int `json:"level"`
}

func (u UpsertHasExperienceAs) ToEdge(in ID[User], out ID[Specialization]) HasExperienceAs {
	return HasExperienceAs{ID: EdgeID[HasExperienceAs](in, out), In: in, Out: out, Level: u.Level}
}

// MemberOf is a user's application to, or membership of, a team.
type MemberOf struct {
	ID          ID[MemberOf] `json:"id"`
	In          ID[User]     `json:"in"`
	Out         ID[Team]     `json:"out"`
	Accepted    bool         `json:"accepted"`
	Application string       `json:"application"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (MemberOf) Table() string { return "member_of" }

func (m MemberOf) RecordID() RecordID { return m.ID.Record() }
func (m MemberOf) InID() ID[User] { return m.In }
func (m MemberOf) OutID() ID[Team] { return m.Out }

type CreateMemberOf struct {
	In          ID[User]
	Out         ID[Team]
	Accepted    bool
	Application string
}

func (c CreateMemberOf) Build() MemberOf {
	return MemberOf{
		ID:          EdgeID[MemberOf](c.In, c.Out),
		In:          c.In,
		Out:         c.Out,
		Accepted:    c.Accepted,
		Application: c.Application,
		CreatedAt:   time.Now().UTC(),
	}
}

type MemberOfUpdate struct {
	Accepted    Opt[bool]   `json:"accepted,omitzero"`
	Application Opt[string] `json:"application,omitzero"`
}

func (p MemberOfUpdate) Apply(m *MemberOf) {
	p.Accepted.ApplyTo(&m.Accepted)
	p.Application.ApplyTo(&m.Application)
}

// Reviewed is a review written by one user about another.
type Reviewed struct {
	ID        ID[Reviewed] `json:"id"`
	In        ID[User]     `json:"in"`
	Out       ID[User]     `json:"out"`
	Score     int          `json:"score"`
	Review    string       `json:"review"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Reviewed) Table() string { return "reviewed" }

func (r Reviewed) RecordID() RecordID { return r.ID.Record() }
func (r Reviewed) InID() ID[User] { return r.In }
func (r Reviewed) OutID() ID[User] { return r.Out }

type CreateReviewed struct {
	In     ID[User]
	Out    ID[User]
	Score  int
	Review string
}

func (c CreateReviewed) Build() Reviewed {
	return Reviewed{
		ID:        EdgeID[Reviewed](c.In, c.Out),
		In:        c.In,
		Out:       c.Out,
		Score:     c.Score,
		Review:    c.Review,
		CreatedAt: time.Now().UTC(),
	}
}

type ReviewedUpdate struct {
	Score  Opt[int]    `json:"score,omitzero"`
	Review Opt[string] `json:"review,omitzero"`
}

func (p ReviewedUpdate) Apply(r *Reviewed) {
	p.Score.ApplyTo(&r.Score)
	p.Review.ApplyTo(&r.Review)
}
