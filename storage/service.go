package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/10001111/File-upload-conponent/storage")

type EventKind string

const (
	EventSaved   EventKind = "saved"
	EventRemoved EventKind = "removed"
)

// Event is published to subscribers on every save and remove, so list views
// can refresh without polling the index.
type Event struct {
	Kind   EventKind  `json:"kind"`
	Record FileRecord `json:"record"`
}

type Options struct {
	// LinkPrefix is the URL path under which minted ephemeral handles are
	// served.
	LinkPrefix string
}

type Option func(*Options)

func WithLinkPrefix(prefix string) Option {
	return func(o *Options) {
		o.LinkPrefix = prefix
	}
}

// Service is the single entry point the rest of the application talks to.
// It coordinates the blob store and the recent-files index and owns the
// fallback policy: when the blob store is unavailable or a blob write
// fails, saves degrade to metadata-only instead of failing.
type Service struct {
	blobs      BlobStore
	index      *Index
	handles    *HandleRegistry
	linkPrefix string

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int

	saves         metric.Int64Counter
	degradedSaves metric.Int64Counter
	removes       metric.Int64Counter
}

func NewService(blobs BlobStore, index *Index, opts ...Option) *Service {
	o := Options{
		LinkPrefix: "/api/v1/links",
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		blobs:         blobs,
		index:         index,
		handles:       NewHandleRegistry(),
		linkPrefix:    o.LinkPrefix,
		subs:          make(map[int]chan Event),
		saves:         newCounter("intake_files_saved_total", "Attachments accepted by Save"),
		degradedSaves: newCounter("intake_files_saved_degraded_total", "Saves that kept metadata only"),
		removes:       newCounter("intake_files_removed_total", "Attachments removed"),
	}
}

func newCounter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		log.Fatal().Err(err).Str("name", name).Msg("failed to create counter")
	}
	return c
}

// Save persists content and registers its record at the front of the
// recent-files index. Save never fails: when the blob store is unavailable
// or the write fails, the record is still indexed and returned, and only
// later retrieval comes back absent. A save past RetentionCap evicts the
// oldest record and deletes its blob, so content never outlives its
// record. The caller is assumed to have validated the input already.
func (s *Service) Save(ctx context.Context, name, mimeType string, content []byte) FileRecord {
	rec := FileRecord{
		ID:         newFileID(),
		Name:       name,
		Size:       int64(len(content)),
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	}

	if s.blobs.Available() {
		if err := s.blobs.Put(ctx, rec.ID, bytes.NewReader(content)); err != nil {
			log.Warn().Err(err).Str("id", rec.ID).Msg("blob write failed, keeping metadata only")
			s.degradedSaves.Add(ctx, 1)
		}
	} else {
		log.Debug().Str("id", rec.ID).Msg("blob store unavailable, keeping metadata only")
		s.degradedSaves.Add(ctx, 1)
	}

	evicted, err := s.index.InsertFront(rec)
	if err != nil {
		log.Error().Err(err).Str("id", rec.ID).Msg("failed to persist file index")
	}
	for _, old := range evicted {
		if err := s.blobs.Delete(ctx, old.ID); err != nil && !errors.Is(err, ErrUnavailable) {
			log.Warn().Err(err).Str("id", old.ID).Msg("failed to delete evicted blob")
		}
	}

	s.saves.Add(ctx, 1)
	s.publish(Event{Kind: EventSaved, Record: rec})
	return rec
}

// Retrieve returns the stored content for id. Unknown ids and an
// unavailable blob store both come back as absent; the caller cannot tell
// them apart through this call, and does not need to.
func (s *Service) Retrieve(ctx context.Context, id string) ([]byte, bool) {
	rc, err := s.blobs.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnavailable) {
			log.Warn().Err(err).Str("id", id).Msg("blob read failed")
		}
		return nil, false
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("blob read failed")
		return nil, false
	}
	return content, true
}

// EphemeralURL mints a process-local handle for the content of id and
// returns the URL path it is served under. The caller owns releasing the
// handle once it is no longer needed; the facade does not track handle
// lifetime.
func (s *Service) EphemeralURL(ctx context.Context, id string) (string, bool) {
	content, ok := s.Retrieve(ctx, id)
	if !ok {
		return "", false
	}

	h := Handle{
		MimeType: "application/octet-stream",
		Content:  content,
	}
	for _, rec := range s.index.List(RetentionCap) {
		if rec.ID == id {
			h.Name = rec.Name
			if rec.MimeType != "" {
				h.MimeType = rec.MimeType
			}
			break
		}
	}

	token := s.handles.Mint(h)
	return s.linkPrefix + "/" + token, true
}

// ResolveLink returns the handle behind a minted token.
func (s *Service) ResolveLink(token string) (Handle, bool) {
	return s.handles.Resolve(token)
}

// ReleaseLink revokes a minted token. Safe for unknown tokens.
func (s *Service) ReleaseLink(token string) {
	s.handles.Release(token)
}

// Recent returns up to limit records, most recent first.
func (s *Service) Recent(limit int) []FileRecord {
	return s.index.List(limit)
}

// Remove deletes id from the index and then the blob store, in that order.
// An unlisted blob is harmless; a listed record whose content is gone is
// not. So when the index removal cannot be persisted the blob stays in
// place and the record remains fully intact, and when the blob deletion
// fails after the record is gone the list is still correct. Removing an
// unknown id is a no-op.
func (s *Service) Remove(ctx context.Context, id string) {
	if err := s.index.Remove(id); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to persist file index, keeping blob")
		return
	}
	if err := s.blobs.Delete(ctx, id); err != nil && !errors.Is(err, ErrUnavailable) {
		log.Warn().Err(err).Str("id", id).Msg("blob delete failed, record already removed")
	}

	s.removes.Add(ctx, 1)
	s.publish(Event{Kind: EventRemoved, Record: FileRecord{ID: id}})
}

// Subscribe registers an observer for save/remove events. The returned
// cancel func must be called to unregister. Events to a full subscriber
// channel are dropped rather than blocking storage operations.
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Service) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
