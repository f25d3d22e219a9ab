package client

// NetworkError reports that the HTTP exchange could not be completed and no
// response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return "Network request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RequestError reports a response with a non-success status. Message is the
// flattened, human-readable error extracted from the response body.
type RequestError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// AuthError reports a failed register or login call.
type AuthError struct {
	Op      string
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
