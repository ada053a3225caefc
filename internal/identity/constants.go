package identity

import "time"

const (
	pathProfileFmt = "/access-token/%s"
	pathExistsFmt  = "/access-token/%s/exists"

	OperationExists  = "exists"
	OperationProfile = "profile"

	resultOK          = "ok"
	resultNotFound    = "not_found"
	resultUnavailable = "unavailable"
	resultError       = "error"
	resultMalformed   = "malformed"

	headerAccept        = "Accept"
	mimeApplicationJSON = "application/json"

	maxResponseBytes = 1 << 20

	defaultTimeout             = 5 * time.Second
	defaultMaxIdleConnsPerHost = 32
	idleConnTimeout            = 90 * time.Second
)

const (
	errInvalidBaseURLFmt      = "invalid identity base URL %q"
	errUnavailableFmt         = "%w: %s: %w"
	errMalformedFmt           = "%w: %s: %w"
	errMalformedFieldFmt      = "%w: %s: missing %s"
	errMalformedPermissionFmt = "%w: %s: %w"
	errStatusFmt              = "identity service %s returned status %d"
	errBuildRequestFmt        = "build %s request: %w"
)
