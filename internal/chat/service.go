// Package chat orchestrates one user turn: generation, transcript assembly
// and persistence, in that order. Turns are serialized by the caller; the
// service issues no concurrent work of its own.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"soulcare/internal/genai"
	"soulcare/internal/storage"
)

const titleLimit = 30

// Generator produces a reply for a new user turn given the prior context.
type Generator interface {
	Send(ctx context.Context, prior []storage.Message, text string, useSearch bool) genai.Reply
}

// Repository persists transcripts. It never fails the caller.
type Repository interface {
	Save(ctx context.Context, conv storage.Conversation)
	List(ctx context.Context) []storage.Conversation
	Delete(ctx context.Context, id string)
}

type Service struct {
	repo   Repository
	gen    Generator
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, gen Generator, logger zerolog.Logger) *Service {
	return &Service{repo: repo, gen: gen, logger: logger, now: time.Now}
}

// Lookup finds a persisted conversation by identifier.
func (s *Service) Lookup(ctx context.Context, id string) (storage.Conversation, bool) {
	if id == "" {
		return storage.Conversation{}, false
	}
	for _, c := range s.repo.List(ctx) {
		if c.ID == id {
			return c, true
		}
	}
	return storage.Conversation{}, false
}

// Turn appends the user message and the generated reply to the conversation
// and persists the result. A zero-ID conversation starts a new transcript
// with a fresh identifier; an existing one keeps its identity and created_at.
// Generation failures still produce a normal model turn (the apology text),
// never an error.
func (s *Service) Turn(ctx context.Context, conv storage.Conversation, text string, useSearch bool) storage.Conversation {
	nowMs := s.now().UnixMilli()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
		conv.CreatedAt = nowMs
	}

	prior := conv.Messages
	userMsg := storage.Message{
		ID:        uuid.NewString(),
		Role:      storage.RoleUser,
		Content:   text,
		Timestamp: nowMs,
	}

	reply := s.gen.Send(ctx, prior, text, useSearch)

	content := reply.Text
	if len(reply.Sources) > 0 {
		lines := make([]string, 0, len(reply.Sources))
		for _, src := range reply.Sources {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", src.Title, src.URI))
		}
		content += "\n\n**Sources:**\n" + strings.Join(lines, "\n")
	}
	modelMsg := storage.Message{
		ID:        uuid.NewString(),
		Role:      storage.RoleModel,
		Content:   content,
		Timestamp: s.now().UnixMilli(),
	}

	if len(prior) == 0 {
		conv.Title = truncate(text, titleLimit) + "..."
	} else if conv.Title == "" {
		conv.Title = truncate(text, titleLimit)
	}

	conv.Messages = append(conv.Messages, userMsg, modelMsg)
	s.repo.Save(ctx, conv)
	return conv
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
