// ABOUTME: Audit trail for privileged API actions and the organizator listing
// ABOUTME: A failed audit write is logged and never fails the request

package api

import (
	"fmt"
	"net/http"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/repository"
)

// audit records that the current user performed action on target.
func (a *API) audit(r *http.Request, action entity.AuditAction, target entity.RecordID, detail map[string]any) {
	actor := currentUser(r).ID
	if _, err := a.repos.Audit.Append(r.Context(), entity.CreateAuditEntry{
		Actor:  actor,
		Action: action,
		Target: target,
		Detail: detail,
	}); err != nil {
		a.logger.Warn("failed to append audit entry",
			"action", action,
			"actor", actor.Key(),
			"target", target.String(),
			"error", err,
		)
	}
}

// handleListAudit handles GET /api/audit, organizators only. Optional
// ?actor=, ?action= and ?target= narrow the listing.
func (a *API) handleListAudit(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var filter repository.AuditFilter
	q := r.URL.Query()
	if raw := q.Get("actor"); raw != "" {
		filter.Actor, err = entity.ParseID[entity.User](raw)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: actor: %v", errInvalidInput, err))
			return
		}
	}
	if raw := q.Get("action"); raw != "" {
		filter.Action = entity.AuditAction(raw)
		if !entity.ValidAuditAction(filter.Action) {
			a.fail(w, r, fmt.Errorf("%w: unknown action %q", errInvalidInput, raw))
			return
		}
	}
	if raw := q.Get("target"); raw != "" {
		filter.Target, err = entity.ParseRecordID(raw)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: target: %v", errInvalidInput, err))
			return
		}
	}

	entries, err := a.repos.Audit.List(r.Context(), filter, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(entries, page))
}
