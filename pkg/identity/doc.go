// Package identity resolves "who is calling" into a stable user id.
//
// Service issues and verifies HS256 tokens whose subject is the user id.
// Authenticator combines a Service with a TokenExtractor and is what the
// streaming endpoint and the REST middleware consult; anything that fails to
// produce a user id is reported as ErrUnauthenticated.
//
//	svc, _ := identity.NewFromConfig(cfg)
//	auth := identity.NewAuthenticator(svc, nil)
//	r.Use(identity.Middleware(auth, nil))
package identity
