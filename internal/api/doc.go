// Package api implements the HTTP REST API and WebSocket server for the
// telemetry service.
//
// This package provides:
//   - Account signup and login under /api/auth
//   - Device registry, heartbeat, event log and usage endpoints under
//     /api/devices, all scoped to the authenticated owner
//   - A websocket hub at /api/ws that pushes an owner's committed changes
//     to that owner's connections
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Security
//
// Protected routes require "Authorization: Bearer <jwt>". The caller's user
// ID is the owner ID for every core operation; a device owned by someone
// else answers exactly like a device that does not exist.
//
// # Errors
//
// Validation failures are 400, ownership failures are 404 and anything
// else is 500. A 500 carries the error chain as "detail" only outside
// production.
package api
