// Package auth provides authentication and authorization for the API.
//
// Clients authenticate with a bearer token obtained from signup or login.
// Tokens are HS256 JWTs carrying the user id (subject) and email and expire
// after AUTH_TOKEN_EXPIRY (7 days by default). There is no server-side
// revocation; logging out means discarding the token.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<hex>        # Auto-generated if empty (tokens then die with the process)
//	AUTH_TOKEN_EXPIRY=168h       # Token validity
//	AUTH_BCRYPT_COST=10          # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5    # Failed logins per IP+email before lockout
//	REDIS_ADDR=localhost:6379    # Share login lockouts across instances
//
// # Usage
//
//	tokens, _ := auth.NewTokenManager(secret, cfg.Auth.TokenExpiry)
//	authService := auth.NewService(db.DB, tokens, cfg.Auth)
//	middleware := auth.NewMiddleware(authService)
//	router.Use(middleware.Handler())
//	protected := router.Group("/api", middleware.RequireAuth())
//
// Handlers read the verified identity explicitly:
//
//	principal, ok := auth.PrincipalFrom(c)
package auth
