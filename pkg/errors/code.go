package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & transport errors
// 11000-11999: Session & identity errors
// 12000-12999: Token errors
// 13000-13999: Submission & judge errors
// 14000-14999: Persisted state errors

const (
	// ========== System & Transport (10000-10999) ==========

	Success ErrorCode = 10000

	InternalError   ErrorCode = 10001
	InvalidParams   ErrorCode = 10002
	NotFound        ErrorCode = 10003
	TransportFailed ErrorCode = 10004
	RateLimited     ErrorCode = 10005
	Timeout         ErrorCode = 10006

	// ========== Session & Identity (11000-11999) ==========

	InvalidCredentials ErrorCode = 11000
	NoCurrentUser      ErrorCode = 11001
	FederationRejected ErrorCode = 11002
	SignOutFailed      ErrorCode = 11003

	// ========== Token (12000-12999) ==========

	MalformedToken ErrorCode = 12000
	TokenExpired   ErrorCode = 12001

	// ========== Submission & Judge (13000-13999) ==========

	EmptySourceCode        ErrorCode = 13000
	SubmissionCreateFailed ErrorCode = 13001
	SubmissionNotFound     ErrorCode = 13002
	PollTimeout            ErrorCode = 13003
	LanguageNotSupported   ErrorCode = 13004

	// ========== Persisted State (14000-14999) ==========

	CookieReadFailed   ErrorCode = 14000
	CookieWriteFailed  ErrorCode = 14001
	CookieRemoveFailed ErrorCode = 14002
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:         "Success",
	InternalError:   "Internal error",
	InvalidParams:   "Invalid parameters",
	NotFound:        "Resource not found",
	TransportFailed: "Request failed, please try again",
	RateLimited:     "Too many requests, please try again later",
	Timeout:         "Request timeout",

	InvalidCredentials: "Invalid username or password",
	NoCurrentUser:      "No current user",
	FederationRejected: "Federated sign-in rejected",
	SignOutFailed:      "Sign-out failed",

	MalformedToken: "Malformed identity token",
	TokenExpired:   "Token has expired",

	EmptySourceCode:        "Source code cannot be empty",
	SubmissionCreateFailed: "Failed to create submission",
	SubmissionNotFound:     "Submission not found",
	PollTimeout:            "Submission did not complete in time",
	LanguageNotSupported:   "Programming language not supported",

	CookieReadFailed:   "Failed to read persisted session state",
	CookieWriteFailed:  "Failed to write persisted session state",
	CookieRemoveFailed: "Failed to remove persisted session state",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case Success:
		return 200
	case InvalidParams, EmptySourceCode, MalformedToken, LanguageNotSupported:
		return 400
	case InvalidCredentials, NoCurrentUser, TokenExpired:
		return 401
	case NotFound, SubmissionNotFound:
		return 404
	case RateLimited:
		return 429
	case Timeout, PollTimeout:
		return 504
	default:
		return 500
	}
}
