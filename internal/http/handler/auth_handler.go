package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
	"github.com/anisjonischkeit/graphql-authoriser/internal/service"
)

// AuthHandler exposes the verify-facebook-access webhook consumed by
// Hasura Actions.
type AuthHandler struct {
	Auth *service.AuthService
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// actionPayload is the Hasura Action envelope. Field names mirror the
// upstream webhook contract.
type actionPayload struct {
	Input verifyFacebookAccessInput `json:"input" binding:"required"`
}

type verifyFacebookAccessInput struct {
	FBToken string `json:"fbToken" binding:"required"`
}

type verifyFacebookAccessOutput struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken"`
}

// actionError is the two-field error body Hasura expects. Code stays
// null; message is the only diagnostic channel.
type actionError struct {
	Message string  `json:"message"`
	Code    *string `json:"code"`
}

// VerifyFacebookAccess parses the action payload, runs the pipeline,
// and maps every failure onto a 400 with a sanitized message. Secrets
// and raw upstream bodies never reach the response; the detail lives
// in logs only.
func (h *AuthHandler) VerifyFacebookAccess(c *gin.Context) {
	var payload actionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		zap.L().Warn("could not decode action payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, actionError{Message: "could not decode body: " + err.Error()})
		return
	}

	token, err := h.Auth.VerifyFacebookAccess(c.Request.Context(), payload.Input.FBToken)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyFacebookAccessOutput{OK: true, AccessToken: token})
}

// Healthz reports process liveness.
func (h *AuthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandler) respondPipelineError(c *gin.Context, err error) {
	logger := zap.L()

	var message string
	switch {
	case errors.Is(err, domain.ErrTokenInvalid):
		// Expected whenever a caller presents a stale or forged token.
		logger.Warn("access token rejected by facebook", zap.Error(err))
		message = "invalid access token"
	case errors.Is(err, domain.ErrIdPUnreachable),
		errors.Is(err, domain.ErrIdPRejected),
		errors.Is(err, domain.ErrIdPMalformed):
		logger.Error("facebook verification failed", zap.Error(err))
		message = "could not verify access token"
	case errors.Is(err, domain.ErrAmbiguousIdentity):
		// Store invariant broken. Operators need to look at this.
		logger.Error("ambiguous identity in user store", zap.Error(err))
		message = "something went wrong"
	case errors.Is(err, domain.ErrCreateConflict),
		errors.Is(err, domain.ErrStoreRequest):
		logger.Error("user store request failed", zap.Error(err))
		message = "could not resolve user account"
	case errors.Is(err, domain.ErrSigningFailure),
		errors.Is(err, domain.ErrClockFailure):
		logger.Error("session token issuance failed", zap.Error(err))
		message = "could not issue access token"
	default:
		logger.Error("pipeline failure", zap.Error(err))
		message = "something went wrong"
	}

	c.JSON(http.StatusBadRequest, actionError{Message: message})
}
