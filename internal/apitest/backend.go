// Package apitest is an in-memory accounting backend speaking the same REST
// dialect as the real service. Tests and local development point the client
// at it; it is not a reference implementation of any accounting rule.
package apitest

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"ledgerdesk/internal/domain"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

// Options configures a Backend.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	// HashCost defaults to bcrypt.DefaultCost; tests use bcrypt.MinCost.
	HashCost int
	Logger   *logrus.Logger
}

type userRecord struct {
	user         domain.User
	passwordHash string
}

type failure struct {
	status int
	body   any
}

// Backend holds all state behind one mutex.
type Backend struct {
	opts   Options
	secret []byte
	router *gin.Engine

	mu           sync.Mutex
	nextID       int64
	users        map[int64]*userRecord
	accounts     map[int64]domain.Account
	transactions map[int64]domain.Transaction
	journal      map[int64]domain.JournalEntry
	revoked      map[string]bool
	hits         map[string]int
	failures     map[string][]failure
}

func New(opts Options) *Backend {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "ledgerdesk-dev-secret"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	b := &Backend{
		opts:         opts,
		secret:       []byte(opts.JWTSecret),
		users:        make(map[int64]*userRecord),
		accounts:     make(map[int64]domain.Account),
		transactions: make(map[int64]domain.Transaction),
		journal:      make(map[int64]domain.JournalEntry),
		revoked:      make(map[string]bool),
		hits:         make(map[string]int),
		failures:     make(map[string][]failure),
	}
	b.router = b.routes()
	return b
}

// Handler returns the HTTP handler serving BasePath.
func (b *Backend) Handler() http.Handler {
	return b.router
}

func (b *Backend) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware(), b.requestLogger())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	api := router.Group(BasePath)
	api.Use(b.countAndInject())
	{
		api.POST("/login", b.login)
		api.POST("/refresh", b.refresh)
	}

	protected := api.Group("")
	protected.Use(b.requireToken())
	{
		protected.GET("/me", b.me)
		protected.POST("/change-password", b.changePassword)

		protected.GET("/chart-of-accounts", b.listAccounts)
		protected.POST("/chart-of-accounts", b.createAccount)
		protected.GET("/chart-of-accounts/:id", b.getAccount)
		protected.PUT("/chart-of-accounts/:id", b.updateAccount)
		protected.DELETE("/chart-of-accounts/:id", b.deleteAccount)

		protected.GET("/transactions", b.listTransactions)
		protected.POST("/transactions", b.createTransaction)
		protected.GET("/transactions/:id", b.getTransaction)
		protected.PUT("/transactions/:id", b.updateTransaction)
		protected.DELETE("/transactions/:id", b.deleteTransaction)

		protected.GET("/journal-entries", b.listJournalEntries)
		protected.POST("/journal-entries", b.createJournalEntry)
		protected.GET("/journal-entries/:id", b.getJournalEntry)
		protected.PUT("/journal-entries/:id", b.updateJournalEntry)
		protected.DELETE("/journal-entries/:id", b.deleteJournalEntry)

		protected.GET("/reports/trial-balance", b.trialBalance)
		protected.GET("/reports/income-statement", b.incomeStatement)
		protected.GET("/reports/balance-sheet", b.balanceSheet)
	}

	admin := protected.Group("/users")
	admin.Use(b.requireSuperuser())
	{
		admin.GET("", b.listUsers)
		admin.POST("", b.createUser)
		admin.GET("/:id", b.getUser)
		admin.PUT("/:id", b.updateUser)
		admin.DELETE("/:id", b.deleteUser)
	}

	return router
}

// FailNext makes the next request to method+path answer status with body.
// Path is relative to BasePath, e.g. "/transactions".
func (b *Backend) FailNext(method, path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := hitKey(method, path)
	b.failures[key] = append(b.failures[key], failure{status: status, body: body})
}

// Hits reports how many requests reached method+path.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[hitKey(method, path)]
}

// Revoke invalidates an issued access token.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	b.revoked[token] = true
	b.mu.Unlock()
}

func hitKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func (b *Backend) countAndInject() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := hitKey(c.Request.Method, strings.TrimPrefix(c.Request.URL.Path, BasePath))

		b.mu.Lock()
		b.hits[key]++
		var injected *failure
		if queue := b.failures[key]; len(queue) > 0 {
			injected = &queue[0]
			b.failures[key] = queue[1:]
		}
		b.mu.Unlock()

		if injected != nil {
			if injected.body == nil {
				c.Status(injected.status)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(injected.status, injected.body)
			return
		}
		c.Next()
	}
}

func (b *Backend) nextIDLocked() int64 {
	b.nextID++
	return b.nextID
}

func detail(c *gin.Context, status int, format string, args ...any) {
	c.AbortWithStatusJSON(status, gin.H{"detail": fmt.Sprintf(format, args...)})
}
