package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "circle/internal/errors"
	"circle/internal/middleware"
)

// AuthHandler exchanges the owner's passphrase for a bearer token.
type AuthHandler struct {
	passphraseHash string
}

// NewAuthHandler creates a new AuthHandler checking against a bcrypt hash.
func NewAuthHandler(passphraseHash string) *AuthHandler {
	return &AuthHandler{passphraseHash: passphraseHash}
}

// TokenRequest represents the token request payload
type TokenRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

// TokenResponse represents the authentication response with token
type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken handles passphrase login
// @Summary     Issue a token
// @Description Exchange the configured passphrase for a bearer token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body TokenRequest true "Passphrase"
// @Success     200 {object} TokenResponse "Token issued"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Invalid passphrase"
// @Router      /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	if h.passphraseHash == "" {
		abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Authentication is not enabled"))
		return
	}
	if !middleware.VerifyPassphrase(h.passphraseHash, req.Passphrase) {
		abortWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := middleware.GenerateToken()
	if err != nil {
		abortWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
