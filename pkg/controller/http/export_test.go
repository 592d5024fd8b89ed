package http

var (
	PanicRecoveryMiddleware = panicRecoveryMiddleware
	LoggingMiddleware       = loggingMiddleware
	HandleError             = handleError
	ParseListQuery          = parseListQuery
)
