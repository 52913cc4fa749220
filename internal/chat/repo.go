package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) AutoMigrate() error {
	return r.db.AutoMigrate(&Transcript{})
}

// InsertTranscript is idempotent on ID so redelivered queue messages are harmless.
func (r *Repo) InsertTranscript(ctx context.Context, t *Transcript) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(t).Error
}

// Archive lets the repo stand in for the queue when no broker is configured.
func (r *Repo) Archive(ctx context.Context, t *Transcript) error {
	return r.InsertTranscript(ctx, t)
}

func (r *Repo) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	var t Transcript
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTranscripts returns a session's transcripts newest first. beforeID pages
// backwards; ULIDs sort by creation time.
func (r *Repo) ListTranscripts(ctx context.Context, sessionKey string, limit int, beforeID string) ([]Transcript, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Where("session_key = ?", sessionKey).
		Order("id DESC").
		Limit(limit)
	if beforeID != "" {
		q = q.Where("id < ?", beforeID)
	}

	var out []Transcript
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PurgeBefore deletes transcripts created before cutoff.
func (r *Repo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Transcript{})
	return res.RowsAffected, res.Error
}
