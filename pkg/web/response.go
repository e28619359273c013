package web

import "net/http"

// Response is returned by functions that need to control the status code,
// headers or body of what the host writes.
//
// Example usage:
//
//	func (a *Account) Create(req CreateRequest) (*web.Response, error) {
//	    return web.Created(user).WithHeader("Location", "/account/"+user.ID), nil
//	}
type Response struct {
	StatusCode int
	Body       any
	Headers    map[string]string
}

// NewResponse creates a new Response with the specified status code and body
func NewResponse(statusCode int, body any) *Response {
	return &Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

// OK creates a 200 OK response with the given body
func OK(body any) *Response {
	return NewResponse(http.StatusOK, body)
}

// Created creates a 201 Created response with the given body
func Created(body any) *Response {
	return NewResponse(http.StatusCreated, body)
}

// NoContent creates a 204 No Content response
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// WithHeader sets a response header and returns the response for chaining
func (r *Response) WithHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// Write sends the response through ctx.
func (r *Response) Write(ctx RequestContext) error {
	for k, v := range r.Headers {
		ctx.Response().SetHeader(k, v)
	}
	if r.Body == nil {
		return ctx.Response().NoContent(r.StatusCode)
	}
	if s, ok := r.Body.(string); ok {
		return ctx.Response().String(r.StatusCode, s)
	}
	return ctx.Response().JSON(r.StatusCode, r.Body)
}
