package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-admin/internal/match"
    "github.com/iliyamo/venue-admin/internal/service"
    "github.com/iliyamo/venue-admin/internal/storage"
)

// MatchHandler serves fixtures and predictions.
type MatchHandler struct {
    base
    Matches *service.MatchService
    Files   service.FileStore
}

func NewMatchHandler(matches *service.MatchService, files service.FileStore, log logrus.FieldLogger) *MatchHandler {
    if matches == nil || files == nil {
        panic("nil dependency passed to NewMatchHandler")
    }
    return &MatchHandler{base: base{Log: log}, Matches: matches, Files: files}
}

type createMatchReq struct {
    Team1   string `json:"team1" validate:"required,max=255"`
    Team2   string `json:"team2" validate:"required,max=255"`
    Date    string `json:"date" validate:"required,ymd"`
    Time    string `json:"time" validate:"required,hhmm"`
    Channel string `json:"channel" validate:"required,max=255"`
    Result  string `json:"result" validate:"omitempty,max=255"`
    Status  string `json:"status" validate:"omitempty,match_status"`
}

type updateMatchReq struct {
    Team1   *string `json:"team1" validate:"omitempty,min=1,max=255"`
    Team2   *string `json:"team2" validate:"omitempty,min=1,max=255"`
    Date    *string `json:"date" validate:"omitempty,ymd"`
    Time    *string `json:"time" validate:"omitempty,hhmm"`
    Channel *string `json:"channel" validate:"omitempty,min=1,max=255"`
    Result  *string `json:"result" validate:"omitempty,max=255"`
    Status  *string `json:"status" validate:"omitempty,match_status"`
}

// List: GET /v1/matches
func (h *MatchHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    ms, err := h.Matches.List(ctx)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": ms, "count": len(ms)})
}

// Get: GET /v1/matches/:id
func (h *MatchHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid match id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    m, err := h.Matches.Get(ctx, id)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// Create: POST /v1/matches (multipart, optional team1_logo / team2_logo)
func (h *MatchHandler) Create(c echo.Context) error {
    v, err := formValues(c)
    if err != nil {
        return badRequest(c, "invalid body")
    }
    req := createMatchReq{
        Team1: value(v, "team1"), Team2: value(v, "team2"), Date: value(v, "date"), Time: value(v, "time"),
        Channel: value(v, "channel"), Result: value(v, "result"), Status: value(v, "status"),
    }
    if err := c.Validate(&req); err != nil {
        return h.fail(c, err)
    }
    in := service.MatchInput{
        Team1: &req.Team1, Team2: &req.Team2, Date: &req.Date, Time: &req.Time, Channel: &req.Channel,
    }
    if req.Result != "" {
        in.Result = &req.Result
    }
    if req.Status != "" {
        st, _ := match.ParseStatus(req.Status)
        in.Status = &st
    }
    saved, err := h.saveLogos(c, &in)
    if err != nil {
        return h.fail(c, err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    m, err := h.Matches.Create(ctx, in)
    if err != nil {
        h.discard(saved)
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": msgCreated, "match": m})
}

// Update: PUT|PATCH /v1/matches/:id; absent fields are left unchanged.
func (h *MatchHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid match id")
    }
    v, err := formValues(c)
    if err != nil {
        return badRequest(c, "invalid body")
    }
    req := updateMatchReq{
        Team1: field(v, "team1"), Team2: field(v, "team2"), Date: field(v, "date"), Time: field(v, "time"),
        Channel: field(v, "channel"), Result: field(v, "result"), Status: field(v, "status"),
    }
    if req.Status != nil && *req.Status == "" {
        req.Status = nil
    }
    if err := c.Validate(&req); err != nil {
        return h.fail(c, err)
    }
    in := service.MatchInput{
        Team1: req.Team1, Team2: req.Team2, Date: req.Date, Time: req.Time, Channel: req.Channel, Result: req.Result,
    }
    if req.Status != nil {
        st, _ := match.ParseStatus(*req.Status)
        in.Status = &st
    }
    saved, err := h.saveLogos(c, &in)
    if err != nil {
        return h.fail(c, err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    m, err := h.Matches.Update(ctx, id, in)
    if err != nil {
        h.discard(saved)
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgUpdated, "match": m})
}

// Delete: DELETE /v1/matches/:id
func (h *MatchHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid match id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Matches.Delete(ctx, id); err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgDeleted})
}

// saveLogos stores uploaded logos and points in at them.  It returns the
// stored paths so they can be removed when the write fails.
func (h *MatchHandler) saveLogos(c echo.Context, in *service.MatchInput) ([]string, error) {
    var saved []string
    for _, f := range []struct {
        name string
        dst  **string
    }{{"team1_logo", &in.Team1Logo}, {"team2_logo", &in.Team2Logo}} {
        fh := formFile(c, f.name)
        if fh == nil {
            continue
        }
        rel, err := h.Files.Save(fh, storage.DirLogos)
        if err != nil {
            h.discard(saved)
            return nil, err
        }
        saved = append(saved, rel)
        *f.dst = &rel
    }
    return saved, nil
}

func (h *MatchHandler) discard(paths []string) {
    for _, p := range paths {
        _ = h.Files.Delete(p)
    }
}
