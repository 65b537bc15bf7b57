package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-admin/internal/model"
    "github.com/iliyamo/venue-admin/internal/service"
    "github.com/iliyamo/venue-admin/internal/storage"
)

// RoomHandler manages rooms and their bookings.
type RoomHandler struct {
    base
    Rooms *service.RoomService
    Files service.FileStore
}

func NewRoomHandler(rooms *service.RoomService, files service.FileStore, log logrus.FieldLogger) *RoomHandler {
    if rooms == nil || files == nil {
        panic("nil dependency passed to NewRoomHandler")
    }
    return &RoomHandler{base: base{Log: log}, Rooms: rooms, Files: files}
}

type roomReq struct {
    Category    string  `json:"category" validate:"required,room_category"`
    Name        string  `json:"name" validate:"required,max=255"`
    Price       string  `json:"price" validate:"required,money"`
    Status      string  `json:"status" validate:"required,room_status"`
    Capacity    string  `json:"capacity" validate:"required,number,max=9"`
    Description *string `json:"description" validate:"omitempty,max=2000"`
    Features    *string `json:"features" validate:"omitempty,max=2000"`
}

type bookingReq struct {
    RoomID       uint64 `json:"room_id" validate:"required"`
    CustomerName string `json:"customer_name" validate:"required,max=255"`
    Phone        string `json:"phone" validate:"omitempty,max=32"`
    Guests       uint32 `json:"guests" validate:"required,min=1"`
    Status       string `json:"status" validate:"omitempty,booking_status"`
    StartsAt     string `json:"starts_at" validate:"omitempty,datetime=2006-01-02 15:04"`
}

type bookingStatusReq struct {
    Status string `json:"status" validate:"required,booking_status"`
}

// List: GET /v1/rooms
func (h *RoomHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rooms, err := h.Rooms.List(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": rooms, "count": len(rooms)})
}

// Get: GET /v1/rooms/:id
func (h *RoomHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    r, err := h.Rooms.Get(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// Create: POST /v1/rooms (multipart, optional image)
func (h *RoomHandler) Create(c echo.Context) error {
    req, err := h.bindRoom(c)
    if err != nil {
        return err
    }
    if req == nil {
        return nil
    }
    r := &model.Room{}
    fillRoom(r, req)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if fh := formFile(c, "image"); fh != nil {
        rel, err := h.Files.Save(fh, storage.DirRooms)
        if err != nil {
            return h.fail(c, err)
        }
        r.ImagePath = &rel
    }
    if err := h.Rooms.Create(ctx, r); err != nil {
        if r.ImagePath != nil {
            _ = h.Files.Delete(*r.ImagePath)
        }
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": msgCreated, "room": r})
}

// Update: PUT /v1/rooms/:id; a new image replaces the old one.
func (h *RoomHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    req, err := h.bindRoom(c)
    if err != nil || req == nil {
        return err
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    r, err := h.Rooms.Get(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    old := r.ImagePath
    fillRoom(r, req)
    if fh := formFile(c, "image"); fh != nil {
        rel, err := h.Files.Save(fh, storage.DirRooms)
        if err != nil {
            return h.fail(c, err)
        }
        r.ImagePath = &rel
    }
    if err := h.Rooms.Update(ctx, r, old); err != nil {
        if r.ImagePath != old && r.ImagePath != nil {
            _ = h.Files.Delete(*r.ImagePath)
        }
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgUpdated, "room": r})
}

// Delete: DELETE /v1/rooms/:id
func (h *RoomHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Rooms.Delete(ctx, id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgDeleted})
}

// Bookings: GET /v1/rooms/:id/bookings
func (h *RoomHandler) Bookings(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    bs, err := h.Rooms.Bookings(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": bs, "count": len(bs)})
}

// Book: POST /v1/bookings
func (h *RoomHandler) Book(c echo.Context) error {
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := c.Validate(&req); err != nil {
        return h.fail(c, err)
    }
    b := &model.Booking{RoomID: req.RoomID, CustomerName: req.CustomerName, Guests: req.Guests, Status: req.Status}
    if req.Phone != "" {
        b.Phone = &req.Phone
    }
    if req.StartsAt != "" {
        t, _ := time.Parse("2006-01-02 15:04", req.StartsAt)
        b.StartsAt = &t
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Rooms.Book(ctx, b); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": msgCreated, "booking": b})
}

// SetBookingStatus: PATCH /v1/bookings/:id/status
func (h *RoomHandler) SetBookingStatus(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid booking id")
    }
    var req bookingStatusReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := c.Validate(&req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    b, err := h.Rooms.SetBookingStatus(ctx, id, req.Status)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgUpdated, "booking": b})
}

// bindRoom reads and validates the room fields.  A nil request with a nil
// error means the response has already been written.
func (h *RoomHandler) bindRoom(c echo.Context) (*roomReq, error) {
    v, err := formValues(c)
    if err != nil {
        return nil, badRequest(c, "invalid body")
    }
    req := &roomReq{
        Category: value(v, "category"), Name: value(v, "name"), Price: value(v, "price"),
        Status: value(v, "status"), Capacity: value(v, "capacity"),
        Description: field(v, "description"), Features: field(v, "features"),
    }
    if err := c.Validate(req); err != nil {
        return nil, h.fail(c, err)
    }
    if n, _ := strconv.ParseUint(req.Capacity, 10, 32); n == 0 {
        return nil, c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": map[string]string{"capacity": "min"}})
    }
    return req, nil
}

func fillRoom(r *model.Room, req *roomReq) {
    r.Category = req.Category
    r.Name = req.Name
    r.Price = decimal.RequireFromString(req.Price)
    r.Status = req.Status
    n, _ := strconv.ParseUint(req.Capacity, 10, 32)
    r.Capacity = uint32(n)
    r.Description = emptyToNil(req.Description)
    r.Features = emptyToNil(req.Features)
}

func emptyToNil(s *string) *string {
    if s == nil || *s == "" {
        return nil
    }
    return s
}
