package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dbbs/pkg/glossary"
	"dbbs/pkg/scrapeservice"
)

const maxDocumentBytes = 16 << 20

// Scraper runs one fetch, parse and store cycle.
type Scraper interface {
	Run(ctx context.Context) (*scrapeservice.Report, error)
}

// Server exposes parsing and scrape triggering over HTTP.
type Server struct {
	parser  *glossary.Parser
	scraper Scraper
	logger  *zap.Logger
	engine  *gin.Engine
}

// New builds the router. scraper may be nil, in which case POST /scrape
// answers 503.
func New(parser *glossary.Parser, scraper Scraper, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = glossary.NewParser(glossary.WithLogger(logger))
	}

	s := &Server{
		parser:  parser,
		scraper: scraper,
		logger:  logger,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.POST("/parse", s.handleParse)
	s.engine.POST("/scrape", s.handleScrape)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleParse parses the request body as a glossary document.
func (s *Server) handleParse(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) > maxDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
		return
	}

	result, err := s.parser.ParseString(string(body))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleScrape answers in the same {statusCode, message} shape as the
// deployed scheduled handler.
func (s *Server) handleScrape(c *gin.Context) {
	if s.scraper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"statusCode": http.StatusServiceUnavailable,
			"message":    "scraping is not configured",
		})
		return
	}

	report, err := s.scraper.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"statusCode": http.StatusInternalServerError,
			"message":    err.Error(),
			"report":     report,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"message":    "Successfully parsed and stored content",
		"report":     report,
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
