// ABOUTME: Package entity defines typed record identifiers and the domain records
// ABOUTME: Ids are table-scoped; edge ids are derived from their endpoints

// Package entity holds the typed identifier scheme shared by every persisted
// record and the teamup domain types built on top of it.
//
// An ID[T] carries only a key; its table comes from T, so ids of different
// tables never compare equal and cannot be mixed up at compile time. Nodes get
// fresh natural keys (UUIDv7) from NewID. Edges get keys derived from their
// endpoints with EdgeID, which means at most one edge of a relation exists
// between an ordered pair of records.
//
// The untyped RecordID is what the store layer sees. Its wire form is
// "table:key".
package entity
