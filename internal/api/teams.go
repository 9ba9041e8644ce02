// ABOUTME: Handlers for technologies, teams, team membership and reviews
// ABOUTME: Team changes are limited to the lead; members may leave on their own

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/repository"
)

// handleCreateTechnology handles POST /api/technologies, organizators only.
func (a *API) handleCreateTechnology(w http.ResponseWriter, r *http.Request) {
	var req CreateTechnologyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := checkLength("name", req.Name, 1, maxTechName); err != nil {
		a.fail(w, r, err)
		return
	}

	existing, err := a.repos.Technologies.FindByName(r.Context(), req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if existing != nil {
		a.fail(w, r, fmt.Errorf("%w: technology %q", errAlreadyExists, req.Name))
		return
	}

	tech, err := a.repos.Technologies.Save(r.Context(), entity.CreateTechnology{Name: req.Name})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.Info("created technology", "technology_id", tech.ID.Key(), "name", tech.Name)
	a.audit(r, entity.AuditCreateTechnology, tech.ID.Record(), map[string]any{"name": tech.Name})
	writeJSON(w, http.StatusCreated, tech)
}

func (a *API) handleGetTechnology(w http.ResponseWriter, r *http.Request) {
	id, err := pathID[entity.Technology](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tech, err := a.repos.Technologies.FindByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if tech == nil {
		a.fail(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

// handleCreateTeam handles POST /api/teams. The caller becomes the lead and
// an accepted member.
func (a *API) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateTeamName(req.Name); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := validateDescription(req.Description); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.ensureTeamNameFree(r.Context(), req.Name); err != nil {
		a.fail(w, r, err)
		return
	}

	me := currentUser(r)
	team, err := a.repos.Teams.Save(r.Context(), entity.CreateTeam{
		Name:        req.Name,
		Description: req.Description,
		Lead:        me.ID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.repos.MemberOf.Save(r.Context(), entity.CreateMemberOf{In: me.ID, Out: team.ID, Accepted: true}); err != nil {
		if _, delErr := a.repos.Teams.DeleteByID(r.Context(), team.ID); delErr != nil {
			a.logger.Error("failed to remove team after membership save failed", "team_id", team.ID.Key(), "error", delErr)
		}
		a.fail(w, r, err)
		return
	}

	a.logger.Info("created team", "team_id", team.ID.Key(), "lead", me.ID.Key())
	writeJSON(w, http.StatusCreated, team)
}

func (a *API) ensureTeamNameFree(ctx context.Context, name string) error {
	existing, err := a.repos.Teams.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: team %q", errAlreadyExists, name)
	}
	return nil
}

// team loads the {id} team.
func (a *API) team(r *http.Request) (*entity.Team, error) {
	id, err := pathID[entity.Team](r, "id")
	if err != nil {
		return nil, err
	}
	team, err := a.repos.Teams.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, errNotFound
	}
	return team, nil
}

// ledTeam loads the {id} team and checks the caller leads it.
func (a *API) ledTeam(r *http.Request) (*entity.Team, error) {
	team, err := a.team(r)
	if err != nil {
		return nil, err
	}
	if team.Lead != currentUser(r).ID {
		return nil, fmt.Errorf("%w: only the team lead can do this", errForbidden)
	}
	return team, nil
}

func (a *API) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := a.team(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// handleUpdateTeam handles PATCH /api/teams/{id}. A new lead must already be
// an accepted member.
func (a *API) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	team, err := a.ledTeam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var patch entity.TeamUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		a.fail(w, r, err)
		return
	}

	if name, ok := patch.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if err := validateTeamName(name); err != nil {
			a.fail(w, r, err)
			return
		}
		if name != team.Name {
			if err := a.ensureTeamNameFree(r.Context(), name); err != nil {
				a.fail(w, r, err)
				return
			}
		}
		patch.Name = entity.Set(name)
	}
	if d, ok := patch.Description.Get(); ok {
		if err := validateDescription(d.Ptr()); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if lead, ok := patch.Lead.Get(); ok && lead != team.Lead {
		member, err := a.repos.MemberOf.FindByInAndOut(r.Context(), lead, team.ID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if member == nil || !member.Accepted {
			a.fail(w, r, fmt.Errorf("%w: the new lead must be an accepted member", errInvalidInput))
			return
		}
	}

	updated, err := a.repos.Teams.UpdateByID(r.Context(), team.ID, patch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if updated == nil {
		a.fail(w, r, errNotFound)
		return
	}
	if updated.Lead != team.Lead {
		a.audit(r, entity.AuditTransferLead, team.ID.Record(), map[string]any{
			"from": team.Lead.Key(),
			"to":   updated.Lead.Key(),
		})
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteTeam handles DELETE /api/teams/{id}, removing its memberships too.
func (a *API) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	team, err := a.ledTeam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.removeMemberships(r.Context(), team.ID); err != nil {
		a.fail(w, r, err)
		return
	}
	deleted, err := a.repos.Teams.DeleteByID(r.Context(), team.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if deleted == nil {
		a.fail(w, r, errNotFound)
		return
	}
	a.logger.Info("deleted team", "team_id", team.ID.Key())
	a.audit(r, entity.AuditDeleteTeam, team.ID.Record(), map[string]any{"name": deleted.Name})
	writeJSON(w, http.StatusOK, deleted)
}

func (a *API) removeMemberships(ctx context.Context, team entity.ID[entity.Team]) error {
	for {
		members, err := a.repos.MemberOf.FindAllByOut(ctx, team, repository.Page{Limit: repository.MaxLimit})
		if err != nil {
			return err
		}
		removed := 0
		for _, m := range members {
			deleted, err := a.repos.MemberOf.DeleteByID(ctx, m.ID)
			if err != nil {
				return err
			}
			if deleted != nil {
				removed++
			}
		}
		if removed == 0 {
			return nil
		}
	}
}

// handleListMembers handles GET /api/teams/{id}/members, applicants included.
func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	team, err := a.team(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	members, err := a.repos.MemberOf.FindAllByOut(r.Context(), team.ID, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(members, page))
}

// handleApply handles POST /api/teams/{id}/members. Applying twice is a 409.
func (a *API) handleApply(w http.ResponseWriter, r *http.Request) {
	team, err := a.team(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := checkLength("application", req.Application, 0, maxTextLength); err != nil {
		a.fail(w, r, err)
		return
	}

	member, err := a.repos.MemberOf.Save(r.Context(), entity.CreateMemberOf{
		In:          currentUser(r).ID,
		Out:         team.ID,
		Application: req.Application,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// handleAcceptMember handles PATCH /api/teams/{id}/members/{user}, lead only.
func (a *API) handleAcceptMember(w http.ResponseWriter, r *http.Request) {
	team, err := a.ledTeam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := pathID[entity.User](r, "user")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req AcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if user == team.Lead && !req.Accepted {
		a.fail(w, r, fmt.Errorf("%w: the lead cannot be unaccepted", errInvalidInput))
		return
	}

	updated, err := a.repos.MemberOf.UpdateByInAndOut(r.Context(), user, team.ID, entity.MemberOfUpdate{Accepted: entity.Set(req.Accepted)})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if updated == nil {
		a.fail(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleRemoveMember handles DELETE /api/teams/{id}/members/{user}. The lead
// can remove anyone but themselves; members can remove themselves.
func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	team, err := a.team(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := pathID[entity.User](r, "user")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	me := currentUser(r).ID
	switch {
	case user == team.Lead:
		a.fail(w, r, fmt.Errorf("%w: the lead cannot leave, delete the team instead", errForbidden))
		return
	case me != team.Lead && me != user:
		a.fail(w, r, fmt.Errorf("%w: only the lead or the member can do this", errForbidden))
		return
	}

	deleted, err := a.repos.MemberOf.DeleteByInAndOut(r.Context(), user, team.ID)
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

// handleCreateReview handles POST /api/users/{id}/reviews, mentors and
// organizators only. Each reviewer reviews a user at most once.
func (a *API) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	target, err := pathID[entity.User](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := checkRange("score", req.Score, 0, maxReviewScore); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := checkLength("review", req.Review, 0, maxTextLength); err != nil {
		a.fail(w, r, err)
		return
	}

	me := currentUser(r).ID
	if target == me {
		a.fail(w, r, fmt.Errorf("%w: cannot review yourself", errInvalidInput))
		return
	}
	if _, err := a.accounts.Get(r.Context(), target); err != nil {
		a.fail(w, r, err)
		return
	}

	review, err := a.repos.Reviewed.Save(r.Context(), entity.CreateReviewed{
		In:     me,
		Out:    target,
		Score:  req.Score,
		Review: req.Review,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.audit(r, entity.AuditCreateReview, target.Record(), map[string]any{"score": req.Score})
	writeJSON(w, http.StatusCreated, review)
}

// handleListReviews handles GET /api/users/{id}/reviews: reviews about the user.
func (a *API) handleListReviews(w http.ResponseWriter, r *http.Request) {
	target, err := pathID[entity.User](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	reviews, err := a.repos.Reviewed.FindAllByOut(r.Context(), target, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(reviews, page))
}
