package storage

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one entry of a conversation transcript. Timestamps are epoch
// milliseconds. Messages are append-only; content is never edited after
// creation.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Conversation is the persisted transcript unit. Identity is ID, generated
// once when a session starts and stable across turns. CreatedAt is fixed at
// first creation and never updated.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"created_at"`
	Messages  []Message `json:"messages"`
}
