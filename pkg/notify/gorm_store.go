package notify

import (
	"context"
	"errors"
	"time"

	"github.com/pitabwire/frame/datastore/pool"
	"gorm.io/gorm"
)

var _ Store = (*GormStore)(nil)

// GormStore keeps listeners in the service datastore.
type GormStore struct {
	pool pool.Pool
}

// NewGormStore creates a store on the given datastore pool.
func NewGormStore(p pool.Pool) *GormStore {
	return &GormStore{pool: p}
}

func (s *GormStore) db(ctx context.Context, readOnly bool) *gorm.DB {
	return s.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the listener tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db(ctx, false).AutoMigrate(&Listener{}, &Delivery{}, &DeadLetter{})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateListener(ctx context.Context, l *Listener) error {
	return s.db(ctx, false).Create(l).Error
}

func (s *GormStore) GetListener(ctx context.Context, id string) (*Listener, error) {
	var l Listener
	if err := s.db(ctx, true).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *GormStore) ListListeners(ctx context.Context) ([]Listener, error) {
	var out []Listener
	err := s.db(ctx, true).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) EnabledListeners(ctx context.Context) ([]Listener, error) {
	var out []Listener
	err := s.db(ctx, true).Where("enabled = ?", true).Order("created_at ASC").Find(&out).Error
	return out, err
}

// UpdateListener writes the mutable fields of an existing listener.
func (s *GormStore) UpdateListener(ctx context.Context, l *Listener) error {
	l.ModifiedAt = time.Now()
	res := s.db(ctx, false).Model(l).Where("id = ?", l.ID).Updates(map[string]any{
		"name":        l.Name,
		"url":         l.URL,
		"secret":      l.Secret,
		"events":      l.Events,
		"enabled":     l.Enabled,
		"description": l.Description,
		"modified_at": l.ModifiedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteListener soft-deletes a listener.
func (s *GormStore) DeleteListener(ctx context.Context, id string) error {
	res := s.db(ctx, false).Where("id = ?", id).Delete(&Listener{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) RecordDelivery(ctx context.Context, d *Delivery) error {
	return s.db(ctx, false).Create(d).Error
}

func (s *GormStore) Deliveries(ctx context.Context, listenerID string, limit int) ([]Delivery, error) {
	var out []Delivery
	q := s.db(ctx, true).Where("listener_id = ?", listenerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *GormStore) CreateDeadLetter(ctx context.Context, dl *DeadLetter) error {
	return s.db(ctx, false).Create(dl).Error
}

func (s *GormStore) GetDeadLetter(ctx context.Context, id string) (*DeadLetter, error) {
	var dl DeadLetter
	if err := s.db(ctx, true).Where("id = ?", id).First(&dl).Error; err != nil {
		return nil, notFound(err)
	}
	return &dl, nil
}

func (s *GormStore) DeadLetters(ctx context.Context, listenerID string) ([]DeadLetter, error) {
	var out []DeadLetter
	err := s.db(ctx, true).
		Where("listener_id = ? AND replayable = ?", listenerID, true).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *GormStore) MarkReplayed(ctx context.Context, id string) error {
	return s.db(ctx, false).
		Model(&DeadLetter{}).
		Where("id = ?", id).
		Update("replayable", false).Error
}
