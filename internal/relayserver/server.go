package relayserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"axolotl/internal/domain"
)

const (
	maxFetch   = 500
	claimsKey  = "claims"
	requestKey = "X-Request-ID"
)

// Server serves the relay HTTP API over a Backend.
type Server struct {
	backend  Backend
	tokens   *Tokens
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// New returns a Server. A nil log means slog.Default().
func New(backend Backend, tokens *Tokens, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		backend:  backend,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// Router wires the API into a gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.accessLog())

	v1 := r.Group("/v1")
	v1.POST("/accounts", s.register)
	v1.GET("/bundles/:name/:device", s.fetchBundle)
	v1.PUT("/bundles/:name/:device", s.auth(true), s.publishBundle)
	v1.POST("/messages/:name/:device", s.auth(false), s.send)
	v1.GET("/messages/:name/:device", s.auth(true), s.fetchMessages)
	v1.POST("/messages/:name/:device/ack", s.auth(true), s.ack)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(requestKey) == "" {
			c.Request.Header.Set(requestKey, uuid.NewString())
		}
		c.Header(requestKey, c.GetHeader(requestKey))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"remote", c.ClientIP(),
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
			"request_id", c.GetHeader(requestKey),
		)
	}
}

// auth requires a valid bearer token. With ownPath set, the token must
// belong to the address named in the path.
func (s *Server) auth(ownPath bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, "authorization required")
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if ownPath {
			addr, ok := pathAddress(c)
			if !ok {
				return
			}
			if addr != claims.Address() {
				abort(c, http.StatusForbidden, "token is for another address")
				return
			}
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (s *Server) register(c *gin.Context) {
	var addr domain.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		abort(c, http.StatusBadRequest, "malformed request")
		return
	}
	if !s.valid(c, addr) {
		return
	}

	err := s.backend.CreateAccount(c.Request.Context(), addr)
	if errors.Is(err, ErrExists) {
		abort(c, http.StatusConflict, "address already registered")
		return
	}
	if err != nil {
		s.internal(c, err)
		return
	}
	token, err := s.tokens.Sign(addr)
	if err != nil {
		s.internal(c, err)
		return
	}
	s.log.Info("account registered", "addr", addr.String())
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (s *Server) publishBundle(c *gin.Context) {
	addr, _ := pathAddress(c)
	var b domain.PublishedBundle
	if err := c.ShouldBindJSON(&b); err != nil {
		abort(c, http.StatusBadRequest, "malformed bundle")
		return
	}
	if !s.valid(c, b) {
		return
	}
	if b.Username != addr.Name || b.DeviceID != addr.DeviceID {
		abort(c, http.StatusBadRequest, "bundle does not match path")
		return
	}
	if err := s.backend.PutBundle(c.Request.Context(), b); err != nil {
		s.internal(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) fetchBundle(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}
	b, err := s.backend.TakeBundle(c.Request.Context(), addr)
	if errors.Is(err, ErrNotFound) {
		abort(c, http.StatusNotFound, "no bundle")
		return
	}
	if err != nil {
		s.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) send(c *gin.Context) {
	to, ok := pathAddress(c)
	if !ok {
		return
	}
	var env domain.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		abort(c, http.StatusBadRequest, "malformed envelope")
		return
	}
	if !s.valid(c, env) {
		return
	}
	claims := c.MustGet(claimsKey).(*Claims)
	if env.From != claims.Address() {
		abort(c, http.StatusForbidden, "sender does not match token")
		return
	}
	if env.To != to {
		abort(c, http.StatusBadRequest, "recipient does not match path")
		return
	}

	exists, err := s.backend.AccountExists(c.Request.Context(), to)
	if err != nil {
		s.internal(c, err)
		return
	}
	if !exists {
		abort(c, http.StatusNotFound, "unknown recipient")
		return
	}

	env.ID = uuid.NewString()
	if env.Timestamp == 0 {
		env.Timestamp = s.now().Unix()
	}
	if err := s.backend.Enqueue(c.Request.Context(), env); err != nil {
		s.internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": env.ID})
}

func (s *Server) fetchMessages(c *gin.Context) {
	addr, _ := pathAddress(c)
	limit := maxFetch
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abort(c, http.StatusBadRequest, "bad limit")
			return
		}
		limit = min(n, maxFetch)
	}
	envs, err := s.backend.Fetch(c.Request.Context(), addr, limit)
	if err != nil {
		s.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, envs)
}

type ackRequest struct {
	IDs []string `json:"ids" validate:"required,max=1000,dive,uuid"`
}

func (s *Server) ack(c *gin.Context) {
	addr, _ := pathAddress(c)
	var req ackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "malformed request")
		return
	}
	if !s.valid(c, req) {
		return
	}
	n, err := s.backend.Ack(c.Request.Context(), addr, req.IDs)
	if err != nil {
		s.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acked": n})
}

func (s *Server) valid(c *gin.Context, payload any) bool {
	if err := s.validate.Struct(payload); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) internal(c *gin.Context, err error) {
	s.log.Error("backend failure", "path", c.FullPath(), "err", err, "request_id", c.GetHeader(requestKey))
	abort(c, http.StatusInternalServerError, "internal error")
}

func pathAddress(c *gin.Context) (domain.Address, bool) {
	dev, err := strconv.ParseUint(c.Param("device"), 10, 32)
	name := c.Param("name")
	if err != nil || name == "" {
		abort(c, http.StatusBadRequest, "bad address")
		return domain.Address{}, false
	}
	return domain.Address{Name: domain.Username(name), DeviceID: uint32(dev)}, true
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
