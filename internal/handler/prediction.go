package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-admin/internal/match"
)

type predictionReq struct {
    MatchID    uint64 `json:"football_match_id" validate:"required"`
    Team1Score *int   `json:"team1_score" validate:"required,min=0,max=99"`
    Team2Score *int   `json:"team2_score" validate:"required,min=0,max=99"`
}

// SubmitPrediction: POST /v1/predictions
// Answers 201 for a first guess and 200 when an earlier one is replaced.
func (h *MatchHandler) SubmitPrediction(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req predictionReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := c.Validate(&req); err != nil {
        return h.fail(c, err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    p, created, err := h.Matches.SubmitPrediction(ctx, uid, req.MatchID, match.ScorePair{Team1: *req.Team1Score, Team2: *req.Team2Score})
    if err != nil {
        return h.fail(c, err)
    }
    if created {
        return c.JSON(http.StatusCreated, echo.Map{"message": msgPredictionSaved, "prediction": p})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msgPredictionUpdated, "prediction": p})
}

// MyPredictions: GET /v1/my-predictions
func (h *MatchHandler) MyPredictions(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return h.listPredictions(c, uid)
}

// UserPredictions: GET /v1/users/:id/predictions (admin)
func (h *MatchHandler) UserPredictions(c echo.Context) error {
    uid, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid user id")
    }
    return h.listPredictions(c, uid)
}

func (h *MatchHandler) listPredictions(c echo.Context, uid uint64) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    ps, err := h.Matches.UserPredictions(ctx, uid)
    if err != nil {
        return h.fail(c, err)
    }
    total := 0
    for _, p := range ps {
        total += int(p.Points)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": ps, "count": len(ps), "total_points": total})
}

// Leaderboard: GET /v1/predictions/leaderboard?limit=N
func (h *MatchHandler) Leaderboard(c echo.Context) error {
    limit := 0
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 {
            return badRequest(c, "limit must be a positive integer")
        }
        limit = n
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rows, err := h.Matches.Leaderboard(ctx, limit)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": rows})
}
