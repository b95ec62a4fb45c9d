package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/apperr"
)

// contextKeyExposeErrors makes 500 responses carry the error text.
const contextKeyExposeErrors = "expose_errors"

// Envelope is the body of every JSON API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func respondOK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

func respondCreated(c *gin.Context, data any, message string) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

// respondFailure sends an error envelope with an explicit status.
func respondFailure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError is the error boundary of every handler. Expected errors are
// returned with their message; anything else is logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	switch status {
	case http.StatusInternalServerError:
		log.WithError(err).WithFields(log.Fields{
			"request_id": c.GetString(ContextKeyRequestID),
			"path":       c.FullPath(),
		}).Error("Request failed")

		body := Envelope{Success: false, Message: "internal server error"}
		if c.GetBool(contextKeyExposeErrors) {
			body.Detail = err.Error()
		}
		c.AbortWithStatusJSON(status, body)
	case http.StatusRequestEntityTooLarge:
		respondFailure(c, status, "upload exceeds the maximum allowed size")
	default:
		respondFailure(c, status, apperr.Message(err, http.StatusText(status)))
	}
}

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, returning 0 when absent or malformed.
func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
