package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecast-backend/internal/domain"
	"github.com/yungbote/coursecast-backend/internal/http/middleware"
	"github.com/yungbote/coursecast-backend/internal/http/response"
	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/services"
)

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	cookieTTL    time.Duration
	secureCookie bool
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	if cookieTTL <= 0 {
		cookieTTL = authService.TokenTTL()
	}
	return &AuthHandler{
		log:          log.With("handler", "AuthHandler"),
		authService:  authService,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

func (ah *AuthHandler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", ah.secureCookie, true)
}

// POST /api/auth/signup
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, token, err := ah.authService.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	ah.setTokenCookie(c, token, int(ah.cookieTTL.Seconds()))
	response.RespondCreated(c, gin.H{"message": "User registered successfully", "user": user.Public()})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	ah.setTokenCookie(c, token, int(ah.cookieTTL.Seconds()))
	response.RespondOK(c, gin.H{"message": "Logged in successfully", "user": user.Public()})
}

// GET /api/auth/isloggedin never fails; any token problem reads as logged out.
func (ah *AuthHandler) IsLoggedIn(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if token == "" {
		response.RespondOK(c, gin.H{"isLoggedIn": false, "user": nil})
		return
	}
	_, user, err := ah.authService.SetContextFromToken(c.Request.Context(), token)
	if err != nil || user == nil {
		response.RespondOK(c, gin.H{"isLoggedIn": false, "user": nil})
		return
	}
	response.RespondOK(c, gin.H{"isLoggedIn": true, "user": user.Public()})
}

// GET /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	ah.setTokenCookie(c, "", -1)
	response.RespondOK(c, gin.H{"message": "Logged out successfully"})
}
