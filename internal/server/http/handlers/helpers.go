package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/dto"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) uuid.UUID {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return uuid.Nil
	}
	id, _ := val.(uuid.UUID)
	return id
}

var errorStatuses = []struct {
	kind   error
	status int
}{
	{domainErrors.ErrValidation, http.StatusUnprocessableEntity},
	{domainErrors.ErrNotFound, http.StatusNotFound},
	{domainErrors.ErrUnauthorized, http.StatusForbidden},
	{domainErrors.ErrConflict, http.StatusConflict},
	{domainErrors.ErrExpired, http.StatusGone},
	{domainErrors.ErrInsufficientBalance, http.StatusPaymentRequired},
	{domainErrors.ErrExternalDependency, http.StatusBadGateway},
}

// StatusOf maps a domain error kind to its HTTP status.
func StatusOf(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.kind) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// WriteError renders err as the JSON error envelope.
func WriteError(c *gin.Context, err error) {
	status := StatusOf(err)
	body := dto.ErrorBody{Code: domainErrors.CodeOf(err), Message: err.Error()}
	var de *domainErrors.DomainError
	if errors.As(err, &de) {
		body.Message = de.Message
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		body = dto.ErrorBody{Code: "internal", Message: "internal server error"}
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: body})
}

func badRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorBody{Code: code, Message: message}})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid_id", "path id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

// bindBody decodes an optional JSON body; an empty body leaves dst untouched.
func bindBody(c *gin.Context, dst any, required bool) bool {
	if c.Request.ContentLength == 0 && !required {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid_body", err.Error())
		return false
	}
	return true
}

func roleQuery(c *gin.Context) model.Party {
	if role := c.Query("role"); role != "" {
		return model.Party(role)
	}
	return model.PartyCustomer
}

func limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		badRequest(c, "invalid_limit", "limit must be a positive integer")
		return 0, false
	}
	return min(limit, maxListLimit), true
}
