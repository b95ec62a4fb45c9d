package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/metrics"
)

// AuthAuditor records authentication attempts.
type AuthAuditor interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, success bool)
}

type AuthController struct {
	service *auth.Service
	limiter auth.LoginLimiter
	audit   AuthAuditor
}

// NewAuthController creates the signup/login/profile handlers. limiter and
// auditor may be nil.
func NewAuthController(service *auth.Service, limiter auth.LoginLimiter, auditor AuthAuditor) *AuthController {
	return &AuthController{service: service, limiter: limiter, audit: auditor}
}

type signupRequest struct {
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	Password      string `json:"password"`
	Newsletter    bool   `json:"newsletter"`
	Accessibility bool   `json:"accessibility"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ac *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := ac.service.Signup(c.Request.Context(), auth.SignupInput{
		Email:         req.Email,
		DisplayName:   req.DisplayName,
		Password:      req.Password,
		Newsletter:    req.Newsletter,
		Accessibility: req.Accessibility,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ac.logAuth(c, session.User.ID, "signup", true)
	respondCreated(c, session, "account created")
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "invalid request body")
		return
	}

	clientIP := c.ClientIP()

	if ac.limiter != nil {
		if allowed, retryAfter := ac.limiter.Allow(clientIP, req.Email); !allowed {
			metrics.LoginAttempts.WithLabelValues("locked").Inc()
			ac.tooManyAttempts(c, retryAfter)
			return
		}
	}

	session, err := ac.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			ac.logAuth(c, 0, "login", false)
			if ac.limiter != nil {
				if locked, retryAfter := ac.limiter.RecordFailure(clientIP, req.Email); locked {
					ac.tooManyAttempts(c, retryAfter)
					return
				}
			}
		}
		respondError(c, err)
		return
	}

	if ac.limiter != nil {
		ac.limiter.RecordSuccess(clientIP, req.Email)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	ac.logAuth(c, session.User.ID, "login", true)
	respondOK(c, session, "login successful")
}

func (ac *AuthController) Profile(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		respondError(c, auth.ErrAuthRequired)
		return
	}

	user, err := ac.service.GetProfile(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user, "")
}

func (ac *AuthController) tooManyAttempts(c *gin.Context, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	respondFailure(c, http.StatusTooManyRequests, "too many login attempts, please try again later")
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}
