// Package server assembles and runs the teamup HTTP server.
//
// [New] opens the configured store, builds the repositories, the account
// service and the principal registry, and mounts:
//
//   - /health        liveness, always 200
//   - /health/ready  readiness, pings the store
//   - /metrics       Prometheus exposition, when metrics are enabled
//   - /api/...       the JSON API from package api
//
// [Server.Run] serves until the context is canceled, then shuts down within
// server.shutdown_timeout and closes the store.
package server
