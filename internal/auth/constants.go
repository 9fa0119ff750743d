package auth

const (
	ContextKeyIdentity = "identity"

	jsonKeyError = "error"

	headerAuthorization = "Authorization"

	bearerScheme    = "bearer"
	authHeaderParts = 2
)

const (
	msgMissingAuthorization    = "missing authorization token"
	msgInvalidOrExpiredToken   = "invalid or expired token"
	msgUserNotAuthenticated    = "user not authenticated"
	msgInvalidIdentityCtx      = "invalid identity in context"
	msgNotChannelManager       = "not authorized to manage this channel"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
)

// RoleSysadmin marks platform operators. Whether they may manage arbitrary
// channels is a deployment decision, not implied by the role alone.
const RoleSysadmin = "sysadmin"
