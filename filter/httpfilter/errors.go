package httpfilter

import "fmt"

// NotAnHTTPRequestError is returned by an HTTP filter that was called with
// a request that is not a *http.Request.
type NotAnHTTPRequestError struct {
	Request any
}

func (e *NotAnHTTPRequestError) Error() string {
	return fmt.Sprintf("the request %v is not a *http.Request, but a %T", e.Request, e.Request)
}

// NotAnHTTPResponseError is returned by an HTTP filter that was called with
// a response that is not an http.ResponseWriter.
type NotAnHTTPResponseError struct {
	Response any
}

func (e *NotAnHTTPResponseError) Error() string {
	return fmt.Sprintf("the response %v is not an http.ResponseWriter, but a %T", e.Response, e.Response)
}
