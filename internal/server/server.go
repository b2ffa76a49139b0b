// Package server exposes the catalog, shared books and the discussion board
// over HTTP, with a websocket feed per shared book.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chapterly/internal/booksearch"
	"github.com/julianstephens/chapterly/internal/catalog"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/profile"
	"github.com/julianstephens/chapterly/internal/shared"
	"github.com/julianstephens/chapterly/internal/storage"
)

const (
	userHeader      = "X-User-ID"
	shutdownTimeout = 5 * time.Second
)

// Searcher looks books up in an external catalogue.
type Searcher interface {
	Search(ctx context.Context, query string) ([]booksearch.Item, error)
}

type Server struct {
	engine   *gin.Engine
	hub      *Hub
	catalog  *catalog.Service
	shared   *shared.Service
	profiles *profile.Service
	searcher Searcher
	debug    bool
}

type Option func(*Server)

// WithSearcher replaces the Aladin client resolved from the environment.
func WithSearcher(s Searcher) Option {
	return func(srv *Server) { srv.searcher = s }
}

// WithDebug turns on gin's debug mode.
func WithDebug(debug bool) Option {
	return func(srv *Server) { srv.debug = debug }
}

func New(store storage.Provider, opts ...Option) *Server {
	s := &Server{
		hub:      NewHub(),
		catalog:  catalog.New(store),
		shared:   shared.New(store),
		profiles: profile.New(store),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shared.SetNotifier(s.hub)
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler. The hub must be running for board
// connections to be served; see Serve.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) routes() *gin.Engine {
	if s.debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", requireUser())
	{
		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.putProfile)

		api.GET("/search", s.searchBooks)
		api.GET("/book-info", s.findBookInfo)
		api.POST("/book-info", s.createBookInfo)
		api.GET("/book-info/:id", s.getBookInfo)
		api.GET("/books/:id/chapter-sets", s.listChapterSets)
		api.POST("/books/:id/chapter-sets", s.submitChapterSet)
		api.GET("/chapter-sets/:id/history", s.chapterSetHistory)

		api.GET("/shared-books", s.listSharedBooks)
		api.POST("/shared-books", s.createSharedBook)
		api.POST("/shared-books/join", s.joinSharedBook)
		api.GET("/shared-books/:id", s.getSharedBook)
		api.GET("/shared-books/:id/notes", s.listSharedNotes)
		api.POST("/shared-books/:id/notes", s.saveSharedNote)
		api.DELETE("/shared-books/:id/notes/:chapter", s.deleteSharedNote)
		api.GET("/shared-books/:id/progress", s.getProgress)
		api.POST("/shared-books/:id/progress", s.markProgress)
		api.GET("/shared-books/:id/posts", s.listPosts)
		api.POST("/shared-books/:id/posts", s.createPost)
		api.GET("/posts/:id/comments", s.listComments)
		api.POST("/posts/:id/comments", s.createComment)
	}

	r.GET("/ws/shared-books/:id/board", requireUser(), s.boardFeed)
	return r
}

// requireUser reads the caller's identity from the X-User-ID header. Browsers
// cannot set headers on websocket requests, so a user query parameter is
// accepted as well.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(userHeader))
		if user == "" {
			user = strings.TrimSpace(c.Query("user"))
		}
		if user == "" {
			respondError(c, errNoUser)
			return
		}
		c.Set(userHeader, user)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userHeader)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
