package shared

import (
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
)

// NewPost is the user input for a board post.
type NewPost struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	ChapterNumber *int   `json:"chapter_number,omitempty"` // 1-based, optional
	PageNumber    *int   `json:"page_number,omitempty"`
}

// Post adds a discussion post to a shared book.
func (s *Service) Post(userID, bookID string, in NewPost) (models.Post, error) {
	now := s.now()
	post := models.Post{
		ID:            uuid.New().String(),
		BookID:        bookID,
		UserID:        userID,
		Title:         strings.TrimSpace(in.Title),
		Content:       strings.TrimSpace(in.Content),
		ChapterNumber: in.ChapterNumber,
		PageNumber:    in.PageNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := post.Validate(); err != nil {
		return models.Post{}, apperrors.Invalid("post", err.Error())
	}
	book, err := s.requireMember(userID, bookID)
	if err != nil {
		return models.Post{}, err
	}
	if post.ChapterNumber != nil && book.TotalChapters > 0 && *post.ChapterNumber > book.TotalChapters {
		return models.Post{}, apperrors.Invalid("chapter", "is past the last chapter")
	}
	if post.PageNumber != nil && book.Pages > 0 && *post.PageNumber > book.Pages {
		return models.Post{}, apperrors.Invalid("page", "is past the last page")
	}

	if err := s.store.AddPost(post); err != nil {
		return models.Post{}, err
	}
	if p, err := s.store.GetProfile(userID); err == nil {
		post.Author = &p
	}
	logger.Info("Created post", "book_id", bookID, "post_id", post.ID)
	s.notifier.Publish(bookID, Event{Type: EventPostCreated, BookID: bookID, UserID: userID, Payload: post})
	return post, nil
}

// Posts lists a book's posts newest first, with authors.
func (s *Service) Posts(userID, bookID string) ([]models.Post, error) {
	if _, err := s.requireMember(userID, bookID); err != nil {
		return nil, err
	}
	posts, err := s.store.GetPosts(bookID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.UserID
	}
	profiles, err := s.authors(ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Author = profileOf(profiles, posts[i].UserID)
	}
	return posts, nil
}

// Comment adds a comment to a post. Only members of the post's book may comment.
func (s *Service) Comment(userID, postID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperrors.Invalid("content", "is required")
	}
	post, err := s.store.GetPost(postID)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := s.requireMember(userID, post.BookID); err != nil {
		return models.Comment{}, err
	}

	c := models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.store.AddComment(c); err != nil {
		return models.Comment{}, err
	}
	if p, err := s.store.GetProfile(userID); err == nil {
		c.Author = &p
	}
	s.notifier.Publish(post.BookID, Event{Type: EventCommentCreated, BookID: post.BookID, UserID: userID, Payload: c})
	return c, nil
}

// Comments lists a post's comments oldest first, with authors.
func (s *Service) Comments(userID, postID string) ([]models.Comment, error) {
	post, err := s.store.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(userID, post.BookID); err != nil {
		return nil, err
	}
	comments, err := s.store.GetComments(postID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	profiles, err := s.authors(ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Author = profileOf(profiles, comments[i].UserID)
	}
	return comments, nil
}
