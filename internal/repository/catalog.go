// ABOUTME: Repositories for profiles, technologies, specializations and teams
// ABOUTME: Profiles are upsert-only; the others are CRUD

package repository

import (
	"context"
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

type ProfileRepository struct {
	*UrdNodes[entity.Profile, entity.UpsertProfile]
}

var _ UrdRepository[entity.Profile, entity.UpsertProfile] = (*ProfileRepository)(nil)

func NewProfileRepository(client store.Client, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{NewUrdNodes[entity.Profile, entity.UpsertProfile](client, logger)}
}

type TechnologyRepository struct {
	*CrudNodes[entity.Technology, entity.CreateTechnology, entity.TechnologyUpdate]
}

var _ CrudRepository[entity.Technology, entity.CreateTechnology, entity.TechnologyUpdate] = (*TechnologyRepository)(nil)

func NewTechnologyRepository(client store.Client, logger *slog.Logger) *TechnologyRepository {
	return &TechnologyRepository{NewCrudNodes[entity.Technology, entity.CreateTechnology, entity.TechnologyUpdate](client, logger)}
}

func (r *TechnologyRepository) FindByName(ctx context.Context, name string) (*entity.Technology, error) {
	return r.findOneBy(ctx, "name", name)
}

type SpecializationRepository struct {
	*CrudNodes[entity.Specialization, entity.CreateSpecialization, entity.SpecializationUpdate]
}

var _ CrudRepository[entity.Specialization, entity.CreateSpecialization, entity.SpecializationUpdate] = (*SpecializationRepository)(nil)

func NewSpecializationRepository(client store.Client, logger *slog.Logger) *SpecializationRepository {
	return &SpecializationRepository{NewCrudNodes[entity.Specialization, entity.CreateSpecialization, entity.SpecializationUpdate](client, logger)}
}

func (r *SpecializationRepository) FindByName(ctx context.Context, name string) (*entity.Specialization, error) {
	return r.findOneBy(ctx, "name", name)
}

type TeamRepository struct {
	*CrudNodes[entity.Team, entity.CreateTeam, entity.TeamUpdate]
}

var _ CrudRepository[entity.Team, entity.CreateTeam, entity.TeamUpdate] = (*TeamRepository)(nil)

func NewTeamRepository(client store.Client, logger *slog.Logger) *TeamRepository {
	return &TeamRepository{NewCrudNodes[entity.Team, entity.CreateTeam, entity.TeamUpdate](client, logger)}
}

func (r *TeamRepository) FindByName(ctx context.Context, name string) (*entity.Team, error) {
	return r.findOneBy(ctx, "name", name)
}
