// Package http exposes the desktop over REST.
//
// Endpoints are grouped by concern:
//
//	/apps      registry and launching
//	/windows   window store operations, plus /viewport
//	/running   lifecycle state, plus /events history
//	/navigate  location sync from the address bar
//	/session   saved window positions
//
// Handlers validate input, call into the domain packages and map domain
// errors to status codes. Error bodies are always {"error": "..."}.
// GET /apps carries an ETag over the catalog so clients can revalidate
// with If-None-Match.
package http
