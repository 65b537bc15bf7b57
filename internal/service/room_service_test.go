package service

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-admin/internal/cache"
	"github.com/iliyamo/venue-admin/internal/model"
	"github.com/iliyamo/venue-admin/internal/repository"
)

type fakeRooms struct {
	lists int
	rooms map[uint64]*model.Room
}

func (f *fakeRooms) List(context.Context) ([]*model.Room, error) {
	f.lists++
	var out []*model.Room
	for _, r := range f.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeRooms) Create(_ context.Context, r *model.Room) error {
	r.ID = uint64(len(f.rooms) + 1)
	f.rooms[r.ID] = r
	return nil
}

func (f *fakeRooms) Update(_ context.Context, r *model.Room) error {
	f.rooms[r.ID] = r
	return nil
}

func (f *fakeRooms) Delete(_ context.Context, id uint64) error {
	delete(f.rooms, id)
	return nil
}

type fakeBookings struct{ created []*model.Booking }

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBookings) ListByRoom(context.Context, uint64) ([]*model.Booking, error) { return nil, nil }

func (f *fakeBookings) UpdateStatus(_ context.Context, id uint64, status string) (*model.Booking, error) {
	return &model.Booking{ID: id, Status: status}, nil
}

type fakeFiles struct{ deleted []string }

func (f *fakeFiles) Save(_ *multipart.FileHeader, dir string) (string, error) { return dir + "/x.png", nil }

func (f *fakeFiles) Delete(rel string) error {
	f.deleted = append(f.deleted, rel)
	return nil
}

func newRoomService() (*RoomService, *fakeRooms, *fakeBookings, *fakeFiles) {
	rooms := &fakeRooms{rooms: map[uint64]*model.Room{1: {ID: 1, Name: "VIP", Capacity: 10}}}
	bookings := &fakeBookings{}
	files := &fakeFiles{}
	s := NewRoomService(rooms, bookings, cache.NewMemoryStore(time.Minute), files, time.Minute, quietLogger())
	return s, rooms, bookings, files
}

func TestRoomListIsCached(t *testing.T) {
	s, rooms, _, _ := newRoomService()
	ctx := context.Background()

	_, err := s.List(ctx)
	require.NoError(t, err)
	_, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rooms.lists)
}

func TestBookingForgetsRoomList(t *testing.T) {
	s, rooms, bookings, _ := newRoomService()
	ctx := context.Background()

	_, _ = s.List(ctx)
	require.NoError(t, s.Book(ctx, &model.Booking{RoomID: 1, CustomerName: "x", Guests: 2}))
	_, _ = s.List(ctx)

	assert.Equal(t, 2, rooms.lists)
	require.Len(t, bookings.created, 1)
	assert.Equal(t, model.BookingPending, bookings.created[0].Status)
}

func TestRoomUpdateRemovesReplacedImage(t *testing.T) {
	s, _, _, files := newRoomService()
	old, next := "rooms/old.png", "rooms/new.png"

	require.NoError(t, s.Update(context.Background(), &model.Room{ID: 1, ImagePath: &next}, &old))
	assert.Equal(t, []string{old}, files.deleted)
}

func TestRoomDeleteMissing(t *testing.T) {
	s, _, _, _ := newRoomService()
	err := s.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
