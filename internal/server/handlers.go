package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chapterly/internal/booksearch"
	"github.com/julianstephens/chapterly/internal/catalog"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/profile"
	"github.com/julianstephens/chapterly/internal/shared"
)

type profileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Email       *string `json:"email"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=2048"`
}

type bookInfoRequest struct {
	ISBN      string `json:"isbn" validate:"max=20"`
	Title     string `json:"title" validate:"notblank,max=500"`
	Author    string `json:"author" validate:"max=500"`
	Publisher string `json:"publisher" validate:"max=500"`
}

type chapterSetRequest struct {
	Input string `json:"input" validate:"notblank"`
}

type sharedBookRequest struct {
	Title    string `json:"title" validate:"notblank,max=500"`
	Author   string `json:"author" validate:"max=500"`
	Pages    int    `json:"pages" validate:"gte=0"`
	Chapters string `json:"chapters" validate:"notblank"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code" validate:"notblank"`
}

type sharedNoteRequest struct {
	Chapter *int   `json:"chapter" validate:"required,gte=0"`
	Content string `json:"content" validate:"notblank"`
}

type progressRequest struct {
	Chapter *int  `json:"chapter" validate:"required,gte=0"`
	Done    *bool `json:"done"`
}

type postRequest struct {
	Title         string `json:"title" validate:"notblank,max=200"`
	Content       string `json:"content" validate:"notblank"`
	ChapterNumber *int   `json:"chapter_number" validate:"omitempty,gte=1"`
	PageNumber    *int   `json:"page_number" validate:"omitempty,gte=1"`
}

type commentRequest struct {
	Content string `json:"content" validate:"notblank"`
}

// Profiles

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.profiles.Get(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) putProfile(c *gin.Context) {
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	p, err := s.profiles.Set(userID(c), profile.Update{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Catalog

func (s *Server) searchBooks(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondError(c, apperrors.Invalid("q", "is required"))
		return
	}
	searcher := s.searcher
	if searcher == nil {
		key, err := booksearch.ResolveKey()
		if err != nil {
			respondError(c, err)
			return
		}
		searcher = booksearch.New(key)
	}
	items, err := searcher.Search(c.Request.Context(), q)
	if err != nil {
		logger.Warn("Book search failed", "query", q, "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "book search failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) findBookInfo(c *gin.Context) {
	infos, err := s.catalog.Search(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) getBookInfo(c *gin.Context) {
	info, err := s.catalog.GetBookInfo(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) createBookInfo(c *gin.Context) {
	var req bookInfoRequest
	if !bind(c, &req) {
		return
	}
	info, err := s.catalog.FindOrCreateBookInfo(catalog.BookInfoInput{
		ISBN:      req.ISBN,
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) listChapterSets(c *gin.Context) {
	sets, err := s.catalog.ListChapterSets(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

func (s *Server) submitChapterSet(c *gin.Context) {
	var req chapterSetRequest
	if !bind(c, &req) {
		return
	}
	sub, err := s.catalog.SubmitChapterSet(c.Param("id"), req.Input, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	code := http.StatusOK
	if sub.Created {
		code = http.StatusCreated
	}
	c.JSON(code, sub)
}

func (s *Server) chapterSetHistory(c *gin.Context) {
	log, err := s.catalog.History(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// Shared books

func (s *Server) listSharedBooks(c *gin.Context) {
	books, err := s.shared.List(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (s *Server) createSharedBook(c *gin.Context) {
	var req sharedBookRequest
	if !bind(c, &req) {
		return
	}
	book, err := s.shared.Create(userID(c), shared.NewSharedBook{
		Title:       req.Title,
		Author:      req.Author,
		Pages:       req.Pages,
		ChapterText: req.Chapters,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (s *Server) joinSharedBook(c *gin.Context) {
	var req joinRequest
	if !bind(c, &req) {
		return
	}
	book, err := s.shared.Join(userID(c), req.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) getSharedBook(c *gin.Context) {
	d, err := s.shared.Detail(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) listSharedNotes(c *gin.Context) {
	chapter, err := strconv.Atoi(c.Query("chapter"))
	if err != nil {
		respondError(c, apperrors.Invalid("chapter", "must be a chapter index"))
		return
	}
	notes, err := s.shared.Notes(userID(c), c.Param("id"), chapter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (s *Server) saveSharedNote(c *gin.Context) {
	var req sharedNoteRequest
	if !bind(c, &req) {
		return
	}
	note, err := s.shared.SaveNote(userID(c), c.Param("id"), *req.Chapter, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) deleteSharedNote(c *gin.Context) {
	chapter, err := strconv.Atoi(c.Param("chapter"))
	if err != nil {
		respondError(c, apperrors.Invalid("chapter", "must be a chapter index"))
		return
	}
	if err := s.shared.DeleteNote(userID(c), c.Param("id"), chapter); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getProgress(c *gin.Context) {
	rows, err := s.shared.Progress(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) markProgress(c *gin.Context) {
	var req progressRequest
	if !bind(c, &req) {
		return
	}
	done := req.Done == nil || *req.Done
	if err := s.shared.MarkChapter(userID(c), c.Param("id"), *req.Chapter, done); err != nil {
		respondError(c, err)
		return
	}
	s.getProgress(c)
}

// Board

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.shared.Posts(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) createPost(c *gin.Context) {
	var req postRequest
	if !bind(c, &req) {
		return
	}
	post, err := s.shared.Post(userID(c), c.Param("id"), shared.NewPost{
		Title:         req.Title,
		Content:       req.Content,
		ChapterNumber: req.ChapterNumber,
		PageNumber:    req.PageNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) listComments(c *gin.Context) {
	comments, err := s.shared.Comments(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) createComment(c *gin.Context) {
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := s.shared.Comment(userID(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// boardFeed upgrades to a websocket that streams the book's events. Only
// members may subscribe.
func (s *Server) boardFeed(c *gin.Context) {
	bookID := c.Param("id")
	if _, err := s.shared.Detail(userID(c), bookID); err != nil {
		respondError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "book_id", bookID, "error", err)
		return
	}
	s.hub.serve(conn, bookID, userID(c))
}

var _ shared.Notifier = (*Hub)(nil)
var _ Searcher = (*booksearch.Client)(nil)
