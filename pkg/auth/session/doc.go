// Package session issues and verifies signed identity tokens carried in a
// cookie.
//
// Tokens are HS256 JWTs whose subject is the user id, valid for seven days
// by default. Verification never fails loudly: an invalid, expired or
// missing token simply yields no identity.
//
//	m := session.New(secret)
//	token, _ := m.Issue(session.Identity{UserID: "u1", Role: "provider"})
//
//	r.Use(m.Middleware())
//	r.With(session.Require).Get("/api/slices", ...)
//
//	id, ok := session.FromContext(r.Context())
package session
