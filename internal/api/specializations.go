// ABOUTME: Handlers for specializations and the experience users claim in them
// ABOUTME: Organizators create specializations; users upsert their own experience levels

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/2389/teamup/internal/entity"
)

// handleCreateSpecialization handles POST /api/specializations, organizators only.
func (a *API) handleCreateSpecialization(w http.ResponseWriter, r *http.Request) {
	var req CreateSpecializationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := checkLength("name", req.Name, 1, maxSpecializationName); err != nil {
		a.fail(w, r, err)
		return
	}

	existing, err := a.repos.Specializations.FindByName(r.Context(), req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if existing != nil {
		a.fail(w, r, fmt.Errorf("%w: specialization %q", errAlreadyExists, req.Name))
		return
	}

	spec, err := a.repos.Specializations.Save(r.Context(), entity.CreateSpecialization{Name: req.Name})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.Info("created specialization", "specialization_id", spec.ID.Key(), "name", spec.Name)
	a.audit(r, entity.AuditCreateSpecialization, spec.ID.Record(), map[string]any{"name": spec.Name})
	writeJSON(w, http.StatusCreated, spec)
}

func (a *API) handleGetSpecialization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID[entity.Specialization](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	spec, err := a.repos.Specializations.FindByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if spec == nil {
		a.fail(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// handleUpsertExperience handles PUT /api/users/me/specializations/{spec}.
func (a *API) handleUpsertExperience(w http.ResponseWriter, r *http.Request) {
	spec, err := pathID[entity.Specialization](r, "spec")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req entity.UpsertHasExperienceAs
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := checkRange("level", req.Level, minExperienceLevel, maxExperienceLevel); err != nil {
		a.fail(w, r, err)
		return
	}

	exists, err := a.repos.Specializations.ExistsByID(r.Context(), spec)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !exists {
		a.fail(w, r, errNotFound)
		return
	}

	experience, err := a.repos.Experience.UpsertByInAndOut(r.Context(), currentUser(r).ID, spec, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experience)
}

func (a *API) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	spec, err := pathID[entity.Specialization](r, "spec")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	deleted, err := a.repos.Experience.DeleteByInAndOut(r.Context(), currentUser(r).ID, spec)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if deleted == nil {
		a.fail(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// handleListExperience handles GET /api/users/{id}/specializations.
func (a *API) handleListExperience(w http.ResponseWriter, r *http.Request) {
	id, err := pathID[entity.User](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.accounts.Get(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.repos.Experience.FindAllByIn(r.Context(), id, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, page))
}
