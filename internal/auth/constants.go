package auth

const (
	ContextKeyAccount  = "auth_account"
	ContextKeyDecision = "auth_decision"

	HeaderAuthorization     = "Authorization"
	HeaderAccountID         = "X-Authorization-Id"
	HeaderAccountPermission = "X-Authorization-Permission"

	bearerPrefix = "Bearer "

	fingerprintBytes = 8
)

const (
	msgEmptyToken       = "request does not contain an access token"
	msgInvalidToken     = "access token validation failed"
	msgPermissionDenied = "no permission to access this resource"
	msgUnknownError     = "an unexpected error occurred"

	codeEmptyToken       = "EMPTY_TOKEN"
	codeInvalidToken     = "INVALID_TOKEN"
	codePermissionDenied = "PERMISSION_DENIED"

	errCheckExistsFmt  = "check credential: %w"
	errFetchProfileFmt = "fetch profile: %w"
	errProfileGoneFmt  = "%w: %w"

	logUnknownError = "auth filter: unexpected error while authorizing request"
)
