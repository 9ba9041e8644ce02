// ABOUTME: Edge repositories: knows and has_experience_as (URD), member_of and reviewed (CRUD)
// ABOUTME: Thin instantiations of the generic edge repositories

package repository

import (
	"log/slog"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/store"
)

type KnowsRepository = UrdEdges[entity.Knows, entity.User, entity.Technology, entity.UpsertKnows]

var _ UrdEdgeRepository[entity.Knows, entity.User, entity.Technology, entity.UpsertKnows] = (*KnowsRepository)(nil)

func NewKnowsRepository(client store.Client, logger *slog.Logger) *KnowsRepository {
	return NewUrdEdges[entity.Knows, entity.User, entity.Technology, entity.UpsertKnows](client, logger)
}

type ExperienceRepository = UrdEdges[entity.HasExperienceAs, entity.User, entity.Specialization, entity.UpsertHasExperienceAs]

var _ UrdEdgeRepository[entity.HasExperienceAs, entity.User, entity.Specialization, entity.UpsertHasExperienceAs] = (*ExperienceRepository)(nil)

func NewExperienceRepository(client store.Client, logger *slog.Logger) *ExperienceRepository {
	return NewUrdEdges[entity.HasExperienceAs, entity.User, entity.Specialization, entity.UpsertHasExperienceAs](client, logger)
}

type MemberOfRepository = CrudEdges[entity.MemberOf, entity.User, entity.Team, entity.CreateMemberOf, entity.MemberOfUpdate]

var _ CrudEdgeRepository[entity.MemberOf, entity.User, entity.Team, entity.CreateMemberOf, entity.MemberOfUpdate] = (*MemberOfRepository)(nil)

func NewMemberOfRepository(client store.Client, logger *slog.Logger) *MemberOfRepository {
	return NewCrudEdges[entity.MemberOf, entity.User, entity.Team, entity.CreateMemberOf, entity.MemberOfUpdate](client, logger)
}

type ReviewedRepository = CrudEdges[entity.Reviewed, entity.User, entity.User, entity.CreateReviewed, entity.ReviewedUpdate]

var _ CrudEdgeRepository[entity.Reviewed, entity.User, entity.User, entity.CreateReviewed, entity.ReviewedUpdate] = (*ReviewedRepository)(nil)

func NewReviewedRepository(client store.Client, logger *slog.Logger) *ReviewedRepository {
	return NewCrudEdges[entity.Reviewed, entity.User, entity.User, entity.CreateReviewed, entity.ReviewedUpdate](client, logger)
}

// Repositories bundles every repository over one store client.
type Repositories struct {
	Users           *UserRepository
	Profiles        *ProfileRepository
	Technologies    *TechnologyRepository
	Specializations *SpecializationRepository
	Teams           *TeamRepository
	Knows           *KnowsRepository
	Experience      *ExperienceRepository
	MemberOf        *MemberOfRepository
	Reviewed        *ReviewedRepository
	Audit           *AuditRepository
}

func New(client store.Client, logger *slog.Logger) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(client, logger),
		Profiles:        NewProfileRepository(client, logger),
		Technologies:    NewTechnologyRepository(client, logger),
		Specializations: NewSpecializationRepository(client, logger),
		Teams:           NewTeamRepository(client, logger),
		Knows:           NewKnowsRepository(client, logger),
		Experience:      NewExperienceRepository(client, logger),
		MemberOf:        NewMemberOfRepository(client, logger),
		Reviewed:        NewReviewedRepository(client, logger),
		Audit:           NewAuditRepository(client, logger),
	}
}
