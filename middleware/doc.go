// Package middleware adapts projectauth.Engine to net/http.
//
// # Transport contract
//
//   - [Guard] requires "Authorization: Bearer <access token>" and puts the verified
//     principal into the request context.
//   - [SetRefreshCookie] and [RefreshTokenFromRequest] carry the refresh token in an
//     HttpOnly, SameSite=Lax cookie; the access token travels in response bodies only.
//   - [RequestContext] forwards client IP and User-Agent for audit metadata.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or the database.
//   - Make authorization decisions beyond pass/reject from Engine.Authenticate.
package middleware
