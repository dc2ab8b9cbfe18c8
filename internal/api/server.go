// Package api serves the CSMS Track JSON API over gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phmhse/csmstrack/internal/apperr"
	"github.com/phmhse/csmstrack/internal/db"
	"github.com/phmhse/csmstrack/internal/mailer"
	"github.com/phmhse/csmstrack/internal/metrics"
	"github.com/phmhse/csmstrack/internal/reminder"
	"github.com/phmhse/csmstrack/internal/status"
	"github.com/phmhse/csmstrack/internal/storage"
)

// maxUpload bounds multipart file uploads.
const maxUpload = 25 << 20

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB               *gorm.DB
	Port             int
	Out              io.Writer
	Logger           *zap.Logger
	Calendar         status.Calendar
	Dispatcher       *reminder.Dispatcher // nil disables the reminder routes
	Uploader         storage.Uploader     // nil disables uploads and Drive delivery
	Mailer           mailer.Sender        // nil disables email delivery
	ReportRecipients []string
	Timeout          time.Duration // per collaborator call; zero means none
	Now              func() time.Time
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8000
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "CSMS API running at http://localhost:%d\n", opts.Port)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// server carries the handlers' dependencies.
type server struct {
	StartOpts
	log *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts StartOpts) *gin.Engine {
	s := &server{StartOpts: opts, log: opts.Logger}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.Now == nil {
		s.Now = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.observe())
	router.MaxMultipartMemory = maxUpload
	s.registerRoutes(router)
	return router
}

// observe logs each request and records its latency.
func (s *server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, code, d)
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("status", code),
			zap.Duration("duration", d))
	}
}

// upstreamCtx bounds one collaborator call.
func (s *server) upstreamCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.Timeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *server) handleHealth(c *gin.Context) {
	if err := db.Ping(s.DB); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.Now().In(s.Calendar.Location()).Format(time.RFC3339)})
}

// respondError maps error kinds onto HTTP status codes.
func (s *server) respondError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code >= 500 {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// bind decodes the JSON body, reporting malformed input as ErrValidation.
func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperr.Validation("body", "%v", err)
	}
	return nil
}
