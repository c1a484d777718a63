// Package history persists conversation transcripts remote-first with a
// local fallback. No failure here ever reaches the presentation layer as an
// error: every operation degrades to an empty or local result and logs what
// happened.
package history

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"soulcare/internal/metrics"
	"soulcare/internal/storage"
)

// RemoteConversations is the shared-store side of persistence.
type RemoteConversations interface {
	UpsertConversation(ctx context.Context, conv storage.Conversation) error
	ListConversations(ctx context.Context) ([]storage.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// LocalConversations is the per-device backstop holding one full list.
type LocalConversations interface {
	ReadAll(ctx context.Context) ([]storage.Conversation, error)
	WriteAll(ctx context.Context, conversations []storage.Conversation) error
}

type Repository struct {
	remote  RemoteConversations // nil when the remote store is not configured
	local   LocalConversations
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewRepository(remote RemoteConversations, local LocalConversations, logger zerolog.Logger, m *metrics.Metrics) *Repository {
	if m == nil {
		m = metrics.Global()
	}
	return &Repository{remote: remote, local: local, logger: logger, metrics: m}
}

// Save persists the conversation to exactly one store: the remote when it
// accepts the write, otherwise a merge-by-identifier into the local list.
// The local mirror is deliberately not kept in sync while the remote is
// healthy; the next authoritative remote listing supersedes it.
func (r *Repository) Save(ctx context.Context, conv storage.Conversation) {
	if r.remote != nil {
		err := r.remote.UpsertConversation(ctx, conv)
		if err == nil {
			r.metrics.RemoteSaves.Inc()
			return
		}
		r.logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("remote save failed, falling back to local store")
	}

	list, err := r.local.ReadAll(ctx)
	if err != nil {
		// Do not clobber whatever is on disk with a single-entry list.
		r.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("local read failed, save dropped")
		return
	}

	replaced := false
	for i := range list {
		if list[i].ID == conv.ID {
			list[i] = conv
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, conv)
	}

	if err := r.local.WriteAll(ctx, list); err != nil {
		r.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("local save failed")
		return
	}
	r.metrics.LocalFallbackSaves.Inc()
}

// List returns conversations most recent first: the remote ordering
// (updated_at) verbatim when the remote answers, otherwise the local list
// sorted by created_at. The two paths order by different keys.
func (r *Repository) List(ctx context.Context) []storage.Conversation {
	if r.remote != nil {
		list, err := r.remote.ListConversations(ctx)
		if err == nil {
			return list
		}
		r.logger.Warn().Err(err).Msg("remote history fetch failed, using local store")
	}

	list, err := r.local.ReadAll(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("local history read failed")
		return []storage.Conversation{}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
	return list
}

// Delete removes the conversation from both stores: a best-effort remote
// delete whose failure is ignored, and an unconditional filter of the local
// list so the record cannot resurface from whichever store missed the
// deletion.
func (r *Repository) Delete(ctx context.Context, id string) {
	if r.remote != nil {
		if err := r.remote.DeleteConversation(ctx, id); err != nil {
			r.logger.Debug().Err(err).Str("conversation_id", id).Msg("remote delete failed, ignored")
		}
	}

	list, err := r.local.ReadAll(ctx)
	if err != nil {
		r.logger.Error().Err(err).Str("conversation_id", id).Msg("local read failed during delete")
		return
	}
	filtered := list[:0]
	for _, c := range list {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	if err := r.local.WriteAll(ctx, filtered); err != nil {
		r.logger.Error().Err(err).Str("conversation_id", id).Msg("local delete failed")
	}
}
