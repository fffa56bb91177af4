package judgestub

import (
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"codepad/internal/judge"
	pkgerrors "codepad/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Config tunes the stub's behavior.
type Config struct {
	// ProcessDelay is how long a submission spends before turning terminal.
	// The first half reports "In Queue", the second half "Processing".
	ProcessDelay time.Duration
	// RateLimit caps create requests per client IP per window; 0 disables.
	RateLimit int
	RateLimitWindow time.Duration
}

func (c *Config) applyDefaults() {
	if c.ProcessDelay == 0 {
		c.ProcessDelay = 4 * time.Second
	}
	if c.RateLimitWindow == 0 {
		c.RateLimitWindow = time.Minute
	}
}

type storedSubmission struct {
	request   judge.Request
	createdAt time.Time
}

// Server is a development stand-in for the remote judge. It implements the
// same create/poll contract, including 429 responses, so the client's
// workflow can be exercised end to end without a real execution backend.
type Server struct {
	cfg    Config
	engine *gin.Engine

	mu          sync.Mutex
	submissions map[string]storedSubmission
	windows     map[string]*rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

func New(cfg Config) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg:         cfg,
		submissions: make(map[string]storedSubmission),
		windows:     make(map[string]*rateWindow),
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/submissions", s.createSubmission)
	engine.GET("/submissions/:token", s.getSubmission)
	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

type errorResponse struct {
	Code    pkgerrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

func abortWithCode(c *gin.Context, code pkgerrors.ErrorCode) {
	c.AbortWithStatusJSON(code.HTTPStatus(), errorResponse{Code: code, Message: code.Message()})
}

func (s *Server) createSubmission(c *gin.Context) {
	if !s.allow(c.ClientIP()) {
		abortWithCode(c, pkgerrors.RateLimited)
		return
	}

	var req judge.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, pkgerrors.InvalidParams)
		return
	}
	if _, ok := judge.LanguageByID(req.LanguageID); !ok {
		abortWithCode(c, pkgerrors.LanguageNotSupported)
		return
	}
	source, err := base64.StdEncoding.DecodeString(req.SourceCode)
	if err != nil || len(source) == 0 {
		abortWithCode(c, pkgerrors.EmptySourceCode)
		return
	}
	if _, err := base64.StdEncoding.DecodeString(req.Stdin); err != nil {
		abortWithCode(c, pkgerrors.InvalidParams)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.submissions[token] = storedSubmission{request: req, createdAt: time.Now()}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (s *Server) getSubmission(c *gin.Context) {
	token := c.Param("token")
	s.mu.Lock()
	sub, ok := s.submissions[token]
	s.mu.Unlock()
	if !ok {
		abortWithCode(c, pkgerrors.SubmissionNotFound)
		return
	}

	elapsed := time.Since(sub.createdAt)
	result := judge.Result{Token: token}
	switch {
	case elapsed < s.cfg.ProcessDelay/2:
		result.Status = judge.Status{ID: judge.StatusInQueue, Description: "In Queue"}
	case elapsed < s.cfg.ProcessDelay:
		result.Status = judge.Status{ID: judge.StatusProcessing, Description: "Processing"}
	default:
		result.Status = judge.Status{ID: judge.StatusAccepted, Description: "Accepted"}
		result.Stdout = s.fakeOutput(sub.request)
	}
	c.JSON(http.StatusOK, result)
}

// fakeOutput echoes the submission's stdin, or a fixed marker when there is
// none. Enough for a client to render something plausible.
func (s *Server) fakeOutput(req judge.Request) string {
	stdin, err := base64.StdEncoding.DecodeString(req.Stdin)
	if err != nil || len(stdin) == 0 {
		return base64.StdEncoding.EncodeToString([]byte("ok\n"))
	}
	return base64.StdEncoding.EncodeToString(stdin)
}

// allow implements a fixed-window counter per client IP.
func (s *Server) allow(clientIP string) bool {
	if s.cfg.RateLimit <= 0 {
		return true
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[clientIP]
	if !ok || now.Sub(w.start) >= s.cfg.RateLimitWindow {
		s.windows[clientIP] = &rateWindow{start: now, count: 1}
		return true
	}
	if w.count >= s.cfg.RateLimit {
		return false
	}
	w.count++
	return true
}
