package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-rest-errors/internal/fault"
)

// errEmptyBody replaces io.EOF so clients see a readable message.
var errEmptyBody = errors.New("request body is empty")

func init() {
	// Report violation paths with JSON field names instead of Go names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fault.JSONFieldName)
	}
}

// BindJSON decodes and validates the request body into dst. On failure it
// records the error on the context, aborts the chain and returns false, so
// RestErrors answers with constraint violations (400) for invalid fields or a
// generic failure (400) for malformed JSON.
func BindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		err = errEmptyBody
	}
	_ = c.Error(err)
	c.Abort()
	return false
}
