// Package httpapi exposes the Remote API over HTTP/JSON with echo.
//
// Routes:
//
//	GET    /api/ping          connectivity probe, {"status":"OK"}
//	GET    /api/entries       up to 200 most recently updated entries
//	POST   /api/entries       create; honours the Idempotency-Key header
//	PATCH  /api/entries/:id   partial update, updated_at mandatory
//	DELETE /api/entries/:id   delete, always 204
//
// Every entries response uses the envelope {"ok", "data", "error"}.
package httpapi
