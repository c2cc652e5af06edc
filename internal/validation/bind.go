package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 50 << 10

// ErrInvalidJSON is returned for a body that is not exactly one JSON value.
var ErrInvalidJSON = errors.New("invalid JSON body")

// BindJSON decodes the request body into out. An empty body, or one holding a
// single JSON value that is not an object, leaves out untouched. On failure it
// writes a 400 (or 413) response and returns the error for the handler to
// short-circuit.
func BindJSON(c *gin.Context, out any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "request_body_too_large",
				"message": "Request body too large",
			})
			return err
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request_body",
			"message": "Invalid JSON body",
		})
		return err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	// the decoder stops after the first value, so trailing bytes must be caught here
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request_body",
			"message": "Invalid JSON body",
		})
		return ErrInvalidJSON
	}
	if body[0] != '{' {
		return nil
	}

	if err := binding.JSON.BindBody(body, out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request_body",
			"message": "Invalid JSON body",
		})
		return err
	}
	return nil
}
