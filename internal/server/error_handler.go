// file: internal/server/error_handler.go
// version: 2.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/voter-search/internal/server/middleware"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidParams    = "INVALID_PARAMS"
	CodeVoterNotFound    = "VOTER_NOT_FOUND"
	CodeVoterTagNotFound = "VOTER_TAG_NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
)

const (
	invalidParamsMessage = "Invalid params"
	internalErrorMessage = "internal error"
)

// ErrorResponse provides a consistent error response format
type ErrorResponse struct {
	Error                    string   `json:"error"`
	Code                     string   `json:"code,omitempty"`
	Status                   int      `json:"status"`
	ValidationFailureReasons []string `json:"validationFailureReasons,omitempty"`
	VoterID                  string   `json:"voterId,omitempty"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	respond(c, ErrorResponse{Error: message, Code: code, Status: statusCode})
}

func respond(c *gin.Context, resp ErrorResponse) {
	logErrorWithContext(c, resp.Status, resp.Error)
	c.JSON(resp.Status, resp)
}

// RespondWithInvalidParams sends a 400 listing every failed validation
func RespondWithInvalidParams(c *gin.Context, reasons []string) {
	respond(c, ErrorResponse{
		Error:                    invalidParamsMessage,
		Code:                     CodeInvalidParams,
		Status:                   http.StatusBadRequest,
		ValidationFailureReasons: reasons,
	})
}

// RespondWithVoterNotFound sends a 404 for an unknown voter id
func RespondWithVoterNotFound(c *gin.Context, id string) {
	respond(c, ErrorResponse{
		Error:   "Voter not found: " + id,
		Code:    CodeVoterNotFound,
		Status:  http.StatusNotFound,
		VoterID: id,
	})
}

// RespondWithNotFound sends a 404 Not Found error response
func RespondWithNotFound(c *gin.Context, resourceType string, id string, code string) {
	message := resourceType + " not found"
	if id != "" {
		message = message + ": " + id
	}
	RespondWithError(c, http.StatusNotFound, message, code)
}

// RespondWithInternalError sends a 500 without leaking the underlying error
func RespondWithInternalError(c *gin.Context, err error) {
	log.Printf("[ERROR] %s %s: %v [request-id: %s]", c.Request.Method, c.Request.URL.Path, err, middleware.GetRequestID(c))
	RespondWithError(c, http.StatusInternalServerError, internalErrorMessage, CodeInternalError)
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	logLevel := "WARN"
	if statusCode >= 500 {
		logLevel = "ERROR"
	}

	log.Printf("[%s] %s %s %d - %s (from %s) [request-id: %s]", logLevel,
		c.Request.Method, c.Request.URL.Path, statusCode, message, c.ClientIP(), middleware.GetRequestID(c))
}

// HandleBindError handles JSON binding errors with a consistent response
func HandleBindError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "http: request body too large") {
		RespondWithError(c, http.StatusRequestEntityTooLarge, "request body too large", "BODY_TOO_LARGE")
		return true
	}
	RespondWithInvalidParams(c, []string{"invalid request body: " + msg})
	return true
}
