package shared

import (
	"sort"

	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
)

// MemberProgress is one member's reading progress on a shared book.
type MemberProgress struct {
	Member    models.BookMember `json:"member"`
	Completed []int             `json:"completed"` // 0-based chapter indexes, ascending
	Percent   float64           `json:"percent"`
}

// MarkChapter marks chapter (0-based) done or not done for userID.
func (s *Service) MarkChapter(userID, bookID string, chapter int, done bool) error {
	book, err := s.requireMember(userID, bookID)
	if err != nil {
		return err
	}
	if err := s.checkChapter(book, chapter); err != nil {
		return err
	}
	if err := s.store.SetChapterProgress(bookID, userID, chapter, done, s.now()); err != nil {
		return err
	}
	logger.Debug("Updated shared progress", "book_id", bookID, "user_id", userID, "chapter", chapter+1, "done", done)
	s.notifier.Publish(bookID, Event{Type: EventProgressUpdated, BookID: bookID, UserID: userID, Chapter: &chapter, Payload: done})
	return nil
}

// Progress summarizes every member's progress, in join order.
func (s *Service) Progress(userID, bookID string) ([]MemberProgress, error) {
	detail, err := s.Detail(userID, bookID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.GetProgress(bookID)
	if err != nil {
		return nil, err
	}

	done := make(map[string][]int)
	for _, r := range rows {
		done[r.UserID] = append(done[r.UserID], r.ChapterNumber)
	}

	out := make([]MemberProgress, 0, len(detail.Members))
	for _, m := range detail.Members {
		chapters := done[m.UserID]
		sort.Ints(chapters)
		if chapters == nil {
			chapters = []int{}
		}
		mp := MemberProgress{Member: m, Completed: chapters}
		if total := detail.Book.TotalChapters; total > 0 {
			mp.Percent = float64(len(chapters)) / float64(total) * 100
		}
		out = append(out, mp)
	}
	return out, nil
}
