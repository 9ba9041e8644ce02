// Package repository implements the two access disciplines over store.Client.
//
// CRUD resources (CrudRepository, CrudEdgeRepository) are created once with a
// server-minted id, partially updated with entity.Opt fields, and deleted.
// URD resources (UrdRepository, UrdEdgeRepository) are written only by
// idempotent full-replace upserts. Edge ids are derived from their endpoints,
// so a relation holds at most one edge per ordered pair; saving a second CRUD
// edge for the same pair fails with store.ErrConstraintViolation.
//
// Absence is a nil result, never an error. Any lookup beyond the primary key
// is a named method on a concrete repository (FindByEmail, CountByRole, ...).
package repository
