// Package api implements the control-plane HTTP API and WebSocket stream
// for midiplexer.
//
// Every endpoint under /api/v1 turns into one plexer command, so edits made
// over HTTP are applied between signals exactly like edits from any other
// front-end. The WebSocket hub carries three channels: status snapshots,
// activity events and learned signals. Prometheus metrics are served on
// /metrics when a gatherer is configured.
//
// Errors are JSON objects with a status, a code (not_found, bad_request,
// conflict, timeout, unavailable, internal_error) and a message.
package api
