package predict

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the class of a failure reported by the library.
type ErrorCode int

const (
	CodeUnknown                      ErrorCode = -1
	CodeMissingCDVCookie             ErrorCode = -995
	CodeBadHTTPStatus                ErrorCode = -996
	CodeMissingJSONParameter         ErrorCode = -997
	CodeMissingMerchantID            ErrorCode = -998
	CodeNonUniqueRecommendationLogic ErrorCode = -999
)

func (c ErrorCode) String() string {
	switch c {
	case CodeMissingCDVCookie:
		return "MISSING_CDV_COOKIE"
	case CodeBadHTTPStatus:
		return "BAD_HTTP_STATUS"
	case CodeMissingJSONParameter:
		return "MISSING_JSON_PARAMETER"
	case CodeMissingMerchantID:
		return "MISSING_MERCHANT_ID"
	case CodeNonUniqueRecommendationLogic:
		return "NON_UNIQUE_RECOMMENDATION_LOGIC"
	default:
		return "UNKNOWN"
	}
}

// Error is a coded failure. It is returned synchronously for integration
// mistakes and handed to the ErrorHandler for failures that happen after
// SendTransaction has returned.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func newError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is; matching is by code only.
var (
	ErrUnknown              = &Error{Code: CodeUnknown, Message: "An unknown error has occurred"}
	ErrMissingCookie        = &Error{Code: CodeMissingCDVCookie, Message: "Missing 'cdv' cookie"}
	ErrBadHTTPStatus        = &Error{Code: CodeBadHTTPStatus, Message: "Unexpected http status code"}
	ErrMissingJSONParameter = &Error{Code: CodeMissingJSONParameter, Message: "Missing json parameter"}
	ErrMissingMerchantID    = &Error{Code: CodeMissingMerchantID, Message: "The merchantId is required"}
	ErrNonUniqueLogic       = &Error{Code: CodeNonUniqueRecommendationLogic, Message: "The recommend logic must be unique inner transaction"}
)

// Usage errors.
var (
	ErrNotInitialized     = errors.New("please call Initialize first")
	ErrAlreadyInitialized = errors.New("the Initialize function may only be called once")
	ErrNilStorage         = errors.New("the storage cannot be nil")
	ErrNilTransaction     = errors.New("the transaction cannot be nil")
	ErrNilRequest         = errors.New("the request cannot be nil")
	ErrNilItem            = errors.New("the item cannot be nil")
	ErrSessionClosed      = errors.New("the session is closed")
)

// CodeOf returns the code carried by err, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// ErrorParameter is a validation problem found while serializing a
// transaction. It travels to the server inside the error query parameter.
type ErrorParameter struct {
	Kind    string `json:"t"`
	Command string `json:"c"`
	Message string `json:"m"`
}

const (
	KindMultipleCall = "MULTIPLE_CALL"
	KindInvalidArg   = "INVALID_ARG"
)

func (p ErrorParameter) String() string {
	return fmt.Sprintf("%s(%s): %s", p.Kind, p.Command, p.Message)
}

func emptyStringError(command, field string) ErrorParameter {
	return ErrorParameter{
		Kind:    KindInvalidArg,
		Command: command,
		Message: "Invalid argument in " + command + " command: " + field + " should not be an empty string",
	}
}

func multipleCallError(command string) ErrorParameter {
	return ErrorParameter{
		Kind:    KindMultipleCall,
		Command: command,
		Message: "Multiple calls of " + command + " command",
	}
}
