// ABOUTME: Handlers for registration, login, accounts, profiles and known technologies
// ABOUTME: "me" routes act on the authenticated user; {id} routes on any user

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/2389/teamup/internal/account"
	"github.com/2389/teamup/internal/auth"
	"github.com/2389/teamup/internal/entity"
)

func (a *API) writeSession(w http.ResponseWriter, status int, s *account.Session) {
	writeJSON(w, status, SessionResponse{User: newUserResponse(&s.User), Token: s.Token})
}

// handleRegister handles POST /api/auth/register.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	session, err := a.accounts.Register(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeSession(w, http.StatusCreated, session)
}

// handleLogin handles POST /api/auth/login. Unknown emails and wrong
// passwords get the same answer.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	session, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, account.ErrNotFound) || errors.Is(err, account.ErrInvalidPassword) {
		a.logger.Warn("login failed", "remote_addr", r.RemoteAddr, "error", err)
		auth.WriteJSONError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeSession(w, http.StatusOK, session)
}

func (a *API) handleGetMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserResponse(currentUser(r)))
}

// handleUpdateMe handles PATCH /api/users/me. Only email and username can
// change here.
func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch entity.UserUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.accounts.Update(r.Context(), currentUser(r).ID, patch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}

func (a *API) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	a.deleteUser(w, r, currentUser(r).ID)
}

// handleChangePassword handles POST /api/users/me/password and returns a
// fresh token.
func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	session, err := a.accounts.ChangePassword(r.Context(), currentUser(r).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeSession(w, http.StatusOK, session)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID[entity.User](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// handleDeleteUser handles DELETE /api/users/{id}, organizators only.
func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID[entity.User](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.deleteUser(w, r, id)
}

// deleteUser removes the account and its profile.
func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id entity.ID[entity.User]) {
	deleted, err := a.accounts.Delete(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if deleted.Profile != nil {
		if _, err := a.repos.Profiles.DeleteByID(r.Context(), *deleted.Profile); err != nil {
			a.logger.Warn("failed to delete profile of deleted user", "user_id", id.Key(), "error", err)
		}
	}
	a.audit(r, entity.AuditDeleteUser, id.Record(), map[string]any{
		"username": deleted.Username,
		"role":     string(deleted.Role),
	})
	writeJSON(w, http.StatusOK, newUserResponse(deleted))
}

// handleUpsertProfile handles PUT /api/users/me/profile. The first upsert
// creates the profile and links it to the account.
func (a *API) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req entity.UpsertProfile
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := validateProfile(&req); err != nil {
		a.fail(w, r, err)
		return
	}

	me := currentUser(r)
	id := entity.NewID[entity.Profile]()
	if me.Profile != nil {
		id = *me.Profile
	}
	profile, err := a.repos.Profiles.UpsertByID(r.Context(), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if me.Profile == nil {
		if _, err := a.accounts.SetProfile(r.Context(), me.ID, &id); err != nil {
			if _, delErr := a.repos.Profiles.DeleteByID(r.Context(), id); delErr != nil {
				a.logger.Error("failed to remove unlinked profile", "profile_id", id.Key(), "error", delErr)
			}
			a.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleGetMyProfile(w http.ResponseWriter, r *http.Request) {
	a.writeProfile(w, r, currentUser(r))
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID[entity.User](r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeProfile(w, r, user)
}

func (a *API) writeProfile(w http.ResponseWriter, r *http.Request, user *entity.User) {
	profile, err := a.profileOf(r.Context(), user)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) profileOf(ctx context.Context, user *entity.User) (*entity.Profile, error) {
	if user.Profile == nil {
		return nil, errNotFound
	}
	profile, err := a.repos.Profiles.FindByID(ctx, *user.Profile)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errNotFound
	}
	return profile, nil
}

// handleDeleteProfile unlinks the profile from the account, then deletes it.
func (a *API) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me.Profile == nil {
		a.fail(w, r, errNotFound)
		return
	}
	if _, err := a.accounts.SetProfile(r.Context(), me.ID, nil); err != nil {
		a.fail(w, r, err)
		return
	}
	deleted, err := a.repos.Profiles.DeleteByID(r.Context(), *me.Profile)
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

// handleUpsertKnows handles PUT /api/users/me/technologies/{tech}.
func (a *API) handleUpsertKnows(w http.ResponseWriter, r *http.Request) {
	tech, err := pathID[entity.Technology](r, "tech")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req entity.UpsertKnows
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := checkRange("level", req.Level, minKnowsLevel, maxKnowsLevel); err != nil {
		a.fail(w, r, err)
		return
	}

	exists, err := a.repos.Technologies.ExistsByID(r.Context(), tech)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !exists {
		a.fail(w, r, errNotFound)
		return
	}

	knows, err := a.repos.Knows.UpsertByInAndOut(r.Context(), currentUser(r).ID, tech, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, knows)
}

func (a *API) handleDeleteKnows(w http.ResponseWriter, r *http.Request) {
	tech, err := pathID[entity.Technology](r, "tech")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	deleted, err := a.repos.Knows.DeleteByInAndOut(r.Context(), currentUser(r).ID, tech)
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

// handleListKnows handles GET /api/users/{id}/technologies.
func (a *API) handleListKnows(w http.ResponseWriter, r *http.Request) {
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
	items, err := a.repos.Knows.FindAllByIn(r.Context(), id, page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items, page))
}
