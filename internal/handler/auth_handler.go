package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkovalenko/student-journal-api/internal/middleware"
	"github.com/mkovalenko/student-journal-api/internal/models"
	"github.com/mkovalenko/student-journal-api/internal/service"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
	"github.com/mkovalenko/student-journal-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler exposes registration, login and logout endpoints.
type AuthHandler struct {
	auth         authService
	metrics      *service.MetricsService
	cookieMaxAge int
}

// NewAuthHandler constructs handler.
func NewAuthHandler(auth authService, metrics *service.MetricsService, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: metrics, cookieMaxAge: cookieMaxAge}
}

// Register godoc
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Login godoc
// @Summary Log in with username and password
// @Description Issues an access token and sets the browser session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveLoginAttempt(false)
		response.Error(c, err)
		return
	}
	h.metrics.ObserveLoginAttempt(true)
	h.setSessionCookie(c, res.AccessToken)
	response.JSON(c, http.StatusOK, res, nil)
}

// Token godoc
// @Summary OAuth2-style form login
// @Description Accepts form credentials and returns a bearer token.
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} models.TokenResponse
// @Router /token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveLoginAttempt(false)
		response.Error(c, err)
		return
	}
	h.metrics.ObserveLoginAttempt(true)
	h.setSessionCookie(c, res.AccessToken)
	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: res.AccessToken, TokenType: res.TokenType})
}

// Logout godoc
// @Summary Log out
// @Description Clears the browser session cookie. Bearer tokens simply expire.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	response.JSON(c, http.StatusOK, gin.H{"status": "logged out"}, nil)
}

// Me godoc
// @Summary Current user profile
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, currentUser(c), nil)
}

// setSessionCookie stores the token with a Bearer prefix so the cookie value
// is interchangeable with an Authorization header.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.AccessTokenCookie, "Bearer "+token, h.cookieMaxAge, "/", "", false, true)
}
