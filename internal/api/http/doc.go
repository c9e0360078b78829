// Package http exposes the inspector over a JSON API.
//
// Errors are reported as {"success": false, "error": "..."} with a status
// derived from the service error: unknown ids map to 404, bad input to 400,
// upstream failures to 502/503/504.
package http
