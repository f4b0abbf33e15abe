// Package apierrors provides the error taxonomy shared by the API client and
// the view models. All codes are namespaced (e.g., "core:unauthorized").
package apierrors

import "net/http"

// Core error codes - registered automatically at init
const (
	// Transport: the request never produced an HTTP response
	CodeNetwork = "core:network"

	// Backend answered with success:false or a non-2xx status
	CodeApplication = "core:application"

	// Missing, expired or rejected token; callers send the user to login
	CodeUnauthorized = "core:unauthorized"
	CodeForbidden    = "core:forbidden"

	// Client-side checks that stop a request before it is sent
	CodeValidationFailed  = "core:validation_failed"
	CodeInvalidTransition = "core:invalid_transition"

	// Resource errors
	CodeNotFound = "core:not_found"

	// The response body could not be decoded
	CodeBadResponse = "core:bad_response"
)

var coreErrors = []ErrorCode{
	{Code: CodeNetwork, Message: "Unable to reach the server. Please try again.", HTTPStatus: 0},
	{Code: CodeApplication, Message: "The request could not be completed", HTTPStatus: http.StatusBadRequest},
	{Code: CodeUnauthorized, Message: "Session expired, please log in again", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeForbidden, Message: "Permission denied", HTTPStatus: http.StatusForbidden},
	{Code: CodeValidationFailed, Message: "Please fill in all required fields", HTTPStatus: 0},
	{Code: CodeInvalidTransition, Message: "This action is no longer available for the complaint", HTTPStatus: 0},
	{Code: CodeNotFound, Message: "Resource not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeBadResponse, Message: "Unexpected response from the server", HTTPStatus: http.StatusBadGateway},
}

func init() {
	for _, e := range coreErrors {
		Registry.Register(e)
	}
}
