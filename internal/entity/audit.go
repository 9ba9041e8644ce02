// ABOUTME: Append-only audit entries recording privileged actions
// ABOUTME: Keys are UUIDv7, so key order is the order entries were written

package entity

import "time"

// AuditAction names a recorded action.
type AuditAction string

const (
	AuditBootstrap            AuditAction = "bootstrap"
	AuditDeleteUser           AuditAction = "delete_user"
	AuditCreateTechnology     AuditAction = "create_technology"
	AuditCreateSpecialization AuditAction = "create_specialization"
	AuditDeleteTeam           AuditAction = "delete_team"
	AuditTransferLead         AuditAction = "transfer_lead"
	AuditCreateReview         AuditAction = "create_review"
)

// AuditActions lists every action.
var AuditActions = []AuditAction{
	AuditBootstrap,
	AuditDeleteUser,
	AuditCreateTechnology,
	AuditCreateSpecialization,
	AuditDeleteTeam,
	AuditTransferLead,
	AuditCreateReview,
}

// ValidAuditAction reports whether a is a known action.
func ValidAuditAction(a AuditAction) bool {
	for _, known := range AuditActions {
		if known == a {
			return true
		}
	}
	return false
}

// AuditEntry records who did what to which record.
type AuditEntry struct {
	ID        ID[AuditEntry] `json:"id"`
	Actor     ID[User]       `json:"actor"`
	Action    AuditAction    `json:"action"`
	Target    string         `json:"target"` // "table:key"
	Timestamp time.Time      `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
}

func (AuditEntry) Table() string { return "audit" }

func (e AuditEntry) RecordID() RecordID { return e.ID.Record() }

// CreateAuditEntry is appended as a new entry stamped with the current time.
type CreateAuditEntry struct {
	Actor  ID[User]
	Action AuditAction
	Target RecordID
	Detail map[string]any
}

func (c CreateAuditEntry) Build() AuditEntry {
	return AuditEntry{
		ID:        NewID[AuditEntry](),
		Actor:     c.Actor,
		Action:    c.Action,
		Target:    c.Target.String(),
		Timestamp: time.Now().UTC(),
		Detail:    c.Detail,
	}
}
