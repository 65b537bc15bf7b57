package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/venue-admin/internal/cache"
	"github.com/iliyamo/venue-admin/internal/model"
)

// RoomStore is the persistence of rooms.
type RoomStore interface {
	List(ctx context.Context) ([]*model.Room, error)
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	Create(ctx context.Context, r *model.Room) error
	Update(ctx context.Context, r *model.Room) error
	Delete(ctx context.Context, id uint64) error
}

// BookingStore is the persistence of room bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	ListByRoom(ctx context.Context, roomID uint64) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (*model.Booking, error)
}

// RoomService serves the rooms list through the read-through cache and drops
// the cached list on every room or booking write, since bookings change the
// remaining capacity.
type RoomService struct {
	rooms    RoomStore
	bookings BookingStore
	store    cache.Store
	files    FileStore
	ttl      time.Duration
	log      logrus.FieldLogger
}

func NewRoomService(rooms RoomStore, bookings BookingStore, store cache.Store, files FileStore, ttl time.Duration,
	log logrus.FieldLogger) *RoomService {
	return &RoomService{rooms: rooms, bookings: bookings, store: store, files: files, ttl: ttl,
		log: log.WithField("component", "rooms")}
}

func (s *RoomService) List(ctx context.Context) ([]*model.Room, error) {
	return cache.Remember(ctx, s.store, cache.RoomsKey, s.ttl, s.rooms.List)
}

func (s *RoomService) Get(ctx context.Context, id uint64) (*model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *RoomService) Create(ctx context.Context, r *model.Room) error {
	if err := s.rooms.Create(ctx, r); err != nil {
		return err
	}
	s.forget(ctx)
	return nil
}

// Update saves r; a replaced image is removed from disk.
func (s *RoomService) Update(ctx context.Context, r *model.Room, oldImage *string) error {
	if err := s.rooms.Update(ctx, r); err != nil {
		return err
	}
	s.forget(ctx)
	if oldImage != nil && (r.ImagePath == nil || *r.ImagePath != *oldImage) {
		s.removeImage(*oldImage)
	}
	return nil
}

func (s *RoomService) Delete(ctx context.Context, id uint64) error {
	r, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}
	s.forget(ctx)
	if r.ImagePath != nil {
		s.removeImage(*r.ImagePath)
	}
	return nil
}

func (s *RoomService) Bookings(ctx context.Context, roomID uint64) ([]*model.Booking, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.bookings.ListByRoom(ctx, roomID)
}

func (s *RoomService) Book(ctx context.Context, b *model.Booking) error {
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return err
	}
	s.forget(ctx)
	return nil
}

func (s *RoomService) SetBookingStatus(ctx context.Context, id uint64, status string) (*model.Booking, error) {
	b, err := s.bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.forget(ctx)
	return b, nil
}

func (s *RoomService) forget(ctx context.Context) {
	if err := cache.Forget(ctx, s.store, cache.RoomsKey); err != nil {
		s.log.WithError(err).Warn("forget rooms cache failed")
	}
}

func (s *RoomService) removeImage(rel string) {
	if s.files == nil || rel == "" {
		return
	}
	if err := s.files.Delete(rel); err != nil {
		s.log.WithError(err).WithField("path", rel).Warn("remove room image failed")
	}
}
