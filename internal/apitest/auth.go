package apitest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ledgerdesk/internal/domain"
)

const (
	userContextKey = "user"
	refreshPrefix  = "refresh:"
)

type tokenClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// SeedUser registers a user with a bcrypt-hashed password.
func (b *Backend) SeedUser(username, password string, superuser bool) domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.opts.HashCost)
	if err != nil {
		panic(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := domain.NewTimestamp(time.Now().UTC())
	rec := &userRecord{
		user: domain.User{
			ID:          b.nextIDLocked(),
			Username:    username,
			IsSuperuser: superuser,
			IsActive:    true,
			CreatedAt:   &now,
		},
		passwordHash: string(hash),
	}
	b.users[rec.user.ID] = rec
	return rec.user
}

// IssueToken signs an access token for an existing user.
func (b *Backend) IssueToken(username string) (string, error) {
	b.mu.Lock()
	rec := b.findUserLocked(username)
	b.mu.Unlock()
	if rec == nil {
		return "", errors.New("unknown user")
	}
	return b.sign(rec.user, b.opts.TokenTTL)
}

func (b *Backend) sign(user domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

func (b *Backend) findUserLocked(username string) *userRecord {
	for _, rec := range b.users {
		if rec.user.Username == username {
			return rec
		}
	}
	return nil
}

func (b *Backend) login(c *gin.Context) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid login payload")
		return
	}

	b.mu.Lock()
	rec := b.findUserLocked(creds.Username)
	b.mu.Unlock()
	if rec == nil || bcrypt.CompareHashAndPassword([]byte(rec.passwordHash), []byte(creds.Password)) != nil {
		detail(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if !rec.user.IsActive {
		detail(c, http.StatusBadRequest, "Inactive user")
		return
	}

	b.issue(c, rec.user)
}

func (b *Backend) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.RefreshToken, refreshPrefix) {
		detail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	user, err := b.userFromToken(strings.TrimPrefix(req.RefreshToken, refreshPrefix))
	if err != nil {
		detail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	b.issue(c, user)
}

func (b *Backend) issue(c *gin.Context, user domain.User) {
	access, err := b.sign(user, b.opts.TokenTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, "sign token: %v", err)
		return
	}
	refresh, err := b.sign(user, 24*b.opts.TokenTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, "sign token: %v", err)
		return
	}
	c.JSON(http.StatusOK, domain.Token{
		AccessToken:  access,
		TokenType:    "bearer",
		RefreshToken: refreshPrefix + refresh,
	})
}

func (b *Backend) userFromToken(raw string) (domain.User, error) {
	b.mu.Lock()
	revoked := b.revoked[raw]
	b.mu.Unlock()
	if revoked {
		return domain.User{}, errors.New("token revoked")
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.User{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.users[claims.UserID]
	if !ok {
		return domain.User{}, errors.New("user no longer exists")
	}
	return rec.user, nil
}

func (b *Backend) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			detail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		user, err := b.userFromToken(raw)
		if err != nil {
			detail(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func (b *Backend) requireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsSuperuser {
			detail(c, http.StatusForbidden, "The user doesn't have enough privileges")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	v, _ := c.Get(userContextKey)
	user, _ := v.(domain.User)
	return user
}

func (b *Backend) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (b *Backend) changePassword(c *gin.Context) {
	var req domain.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		detail(c, http.StatusUnprocessableEntity, "new_password is required")
		return
	}

	user := currentUser(c)
	b.mu.Lock()
	rec, ok := b.users[user.ID]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(rec.passwordHash), []byte(req.CurrentPassword)) != nil {
		detail(c, http.StatusBadRequest, "Incorrect password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), b.opts.HashCost)
	if err != nil {
		detail(c, http.StatusInternalServerError, "hash password: %v", err)
		return
	}
	b.mu.Lock()
	rec.passwordHash = string(hash)
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
