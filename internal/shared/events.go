package shared

// EventType names a change on a shared book.
type EventType string

const (
	EventMemberJoined    EventType = "member_joined"
	EventProgressUpdated EventType = "progress_updated"
	EventNoteSaved       EventType = "note_saved"
	EventNoteDeleted     EventType = "note_deleted"
	EventPostCreated     EventType = "post_created"
	EventCommentCreated  EventType = "comment_created"
)

// Event is pushed to everyone watching a shared book.
type Event struct {
	Type    EventType `json:"type"`
	BookID  string    `json:"book_id"`
	UserID  string    `json:"user_id,omitempty"`
	Chapter *int      `json:"chapter,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// Notifier receives events after they are committed. Publish must not block.
type Notifier interface {
	Publish(bookID string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, Event) {}
