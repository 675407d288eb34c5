// Package server provides the HTTP server for the GateWatch dashboard and API.
//
// This package is internal to GateWatch and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded page at "/" with the records table and
//     camera indicators rendered server-side
//   - REST API: "/api/records" and "/api/cameras" JSON snapshots, plus the
//     "/fragments/records" HTML table body
//   - Server-Sent Events: real-time updates at "/api/sse"
//   - Operations: "/metrics" (Prometheus) and "/healthz"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
