package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "circle/internal/errors"
	"circle/internal/importer"
)

// parseDate accepts the same layouts as the CSV importer. An empty value
// yields the zero time, which the ledger replaces with now.
func parseDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := importer.ParseDate(value)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date: "+value)
	}
	return t, nil
}

// bindError turns a binding failure into an INVALID_INPUT error.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// abortWithError hands err to middleware.ErrorHandler, which renders the
// error envelope, and stops the handler chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
