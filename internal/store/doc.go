// Package store provides the persistence client used by the repositories.
//
// # Architecture
//
// Every record, node or edge, is a JSON document addressed by an
// entity.RecordID. Edges additionally carry their in and out ids so they can
// be listed from either endpoint. The Client interface is deliberately small:
//
//   - Create: create-if-absent, ErrConstraintViolation on duplicates
//   - Get / Delete: by id, nil when absent
//   - Upsert: full replace
//   - Merge: read-modify-write in one transaction
//   - Query: table plus in/out/field equality, ordered by key
//   - CountBy: group counts over one content field
//
// # Backends
//
// SQLStore runs on database/sql with two dialects:
//
//   - SQLite via modernc.org/sqlite (pure Go, WAL mode, busy timeout,
//     immediate transactions)
//   - Postgres via github.com/jackc/pgx/v5/stdlib
//
// Both share one table:
//
//	records(tb, id, in_tb, in_id, out_tb, out_id, content, created_at, updated_at)
//	PRIMARY KEY (tb, id)
//
// MemoryStore keeps documents in a map guarded by a RWMutex and is used by
// unit tests and the "memory" driver.
//
// # Error Handling
//
// Driver errors are classified once at this boundary:
//
//   - ErrConstraintViolation: SQLite constraint failures, Postgres class 23
//   - ErrConnection: bad/closed connections, network errors, SQLite busy
//   - ErrStorageInvariant: a write reported success without a row
//
// Absence is never an error. All methods accept context.Context for
// cancellation support.
package store
