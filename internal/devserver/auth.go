package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// Cookie names carrying the session.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

const (
	userIDKey      = "user_id"
	minPasswordLen = 6
	defaultColor   = "#29ABE2"
)

type refreshEntry struct {
	userID  int
	expires time.Time
}

type registerRequest struct {
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Color       string `json:"color"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid email"})
		return
	}
	if len(req.Password) < minPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("password needs at least %d characters", minPasswordLen),
		})
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		req.Username = strings.SplitN(req.Email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.respondError(c, err)
		return
	}
	member, err := s.data.createAccount(task.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
	}, hash, req.PhoneNumber, colorOr(req.Color))
	if errors.Is(err, errConflict) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "email or username already taken"})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":   "success",
		"message":  "User created",
		"user_id":  member.User.ID,
		"username": member.User.Username,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	acct, ok := s.data.accountByEmail(strings.TrimSpace(req.Email))
	if !ok || acct.passwordHash == nil ||
		bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid email or password"})
		return
	}
	if err := s.issueAccess(c, acct.user.ID); err != nil {
		s.respondError(c, err)
		return
	}
	s.issueRefresh(c, acct.user.ID)
	c.JSON(http.StatusOK, gin.H{"user_id": acct.user.ID, "username": acct.user.Username})
}

func (s *Server) handleRefresh(c *gin.Context) {
	token, err := c.Cookie(RefreshCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token missing"})
		return
	}
	s.refreshMu.Lock()
	entry, ok := s.refreshes[token]
	if ok && !s.now().Before(entry.expires) {
		delete(s.refreshes, token)
		ok = false
	}
	s.refreshMu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Refresh token invalid or expired"})
		return
	}
	if err := s.issueAccess(c, entry.userID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Token refreshed"})
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(RefreshCookie); err == nil {
		s.refreshMu.Lock()
		delete(s.refreshes, token)
		s.refreshMu.Unlock()
	}
	s.setCookie(c, AccessCookie, "", -1)
	s.setCookie(c, RefreshCookie, "", -1)
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}

// requireAuth rejects requests without a valid access cookie.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		raw, err := c.Cookie(AccessCookie)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		userID, err := s.parseAccess(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			return
		}
		if _, ok := s.data.userByID(userID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Unknown user"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (s *Server) issueAccess(c *gin.Context, userID int) error {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.AccessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return fmt.Errorf("signing access token: %w", err)
	}
	s.setCookie(c, AccessCookie, signed, int(s.opts.AccessTTL/time.Second))
	return nil
}

func (s *Server) issueRefresh(c *gin.Context, userID int) {
	token := uuid.NewString()
	s.refreshMu.Lock()
	s.refreshes[token] = refreshEntry{userID: userID, expires: s.now().Add(s.opts.RefreshTTL)}
	s.refreshMu.Unlock()
	s.setCookie(c, RefreshCookie, token, int(s.opts.RefreshTTL/time.Second))
}

func (s *Server) parseAccess(raw string) (int, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.opts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(claims.Subject)
}

// setCookie sets an HttpOnly cookie scoped to the API base path. A negative
// maxAge deletes it.
func (s *Server) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, s.opts.BasePath, "", false, true)
}

func colorOr(color string) string {
	if color == "" {
		return defaultColor
	}
	return color
}
