package app

import "errors"

// InvalidRequestError is special error type returned when any request params are invalid
type InvalidRequestError string

// Error implements error interface
func (e InvalidRequestError) Error() string {
	return string(e)
}

// IsInvalidRequest tells that this error is 'invalid request'.
// Returns always true.
func (InvalidRequestError) IsInvalidRequest() bool {
	return true
}

// IsInvalidRequestError checks if given error is caused by invalid request
func IsInvalidRequestError(err error) bool {
	type invalidReqErr interface {
		IsInvalidRequest() bool
	}

	var ire invalidReqErr
	if errors.As(err, &ire) {
		return ire.IsInvalidRequest()
	}

	return false
}

// TransportError is returned by github client when api can't be reached,
// responds with unexpected status or the response can't be decoded.
type TransportError string

// Error implements error interface
func (e TransportError) Error() string {
	return string(e)
}

// IsTransport tells that this error is 'transport error'.
// Returns always true.
func (TransportError) IsTransport() bool {
	return true
}

// IsTransportError checks if given error is caused by failed transport
func IsTransportError(err error) bool {
	type transportErr interface {
		IsTransport() bool
	}

	var te transportErr
	if errors.As(err, &te) {
		return te.IsTransport()
	}

	return false
}

// AuthError is returned by github client when credentials were rejected.
type AuthError string

// Error implements error interface
func (e AuthError) Error() string {
	return string(e)
}

// IsAuth tells that this error is 'auth error'.
// Returns always true.
func (AuthError) IsAuth() bool {
	return true
}

// IsAuthError checks if given error is caused by rejected credentials
func IsAuthError(err error) bool {
	type authErr interface {
		IsAuth() bool
	}

	var ae authErr
	if errors.As(err, &ae) {
		return ae.IsAuth()
	}

	return false
}
