package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors (4xx)
	TagNotFound     = goerr.NewTag("not_found")    // 404
	TagValidation   = goerr.NewTag("validation")   // 400
	TagUnauthorized = goerr.NewTag("unauthorized") // 401
	TagForbidden    = goerr.NewTag("forbidden")    // 403
	TagConflict     = goerr.NewTag("conflict")     // 409

	// Identity provider rejected the request; mapped by AuthKind
	TagAuth = goerr.NewTag("auth")

	// Server errors (5xx)
	TagInternal = goerr.NewTag("internal") // 500
	TagExternal = goerr.NewTag("external") // 502/503
	TagDatabase = goerr.NewTag("database") // 500

	// Business logic errors
	TagInvalidState   = goerr.NewTag("invalid_state")
	TagInvalidRequest = goerr.NewTag("invalid_request")
	// stored document could not be decoded
	TagDecode = goerr.NewTag("decode")
)

func IsNotFound(err error) bool {
	return err != nil && goerr.HasTag(err, TagNotFound)
}
