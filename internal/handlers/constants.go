package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrInternalServerError = "Internal server error"
	ErrPointsNotSaved      = "Your points could not be saved. Please try again."
)

// maxBodyBytes bounds JSON request bodies; texts are the largest payload
const maxBodyBytes = 1 << 20
