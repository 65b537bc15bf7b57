package handler // handler maps HTTP requests onto services and repositories

import (
    "encoding/json"
    "errors"
    "fmt"
    "mime/multipart"
    "net/http"
    "net/url"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-admin/internal/match"
    "github.com/iliyamo/venue-admin/internal/middleware"
    "github.com/iliyamo/venue-admin/internal/repository"
    "github.com/iliyamo/venue-admin/internal/service"
    "github.com/iliyamo/venue-admin/internal/storage"
)

// Arabic messages shown by the admin panel.
const (
    msgCreated           = "تمت الإضافة بنجاح"
    msgUpdated           = "تم التحديث بنجاح"
    msgDeleted           = "تم الحذف بنجاح"
    msgPredictionSaved   = "تم حفظ توقعك بنجاح"
    msgPredictionUpdated = "تم تحديث توقعك بنجاح"
    msgPredictionsClosed = "انتهى وقت إرسال التوقعات"
    msgNotFound          = "العنصر غير موجود"
    msgCapacity          = "السعة المتبقية للغرفة غير كافية"
    msgBadSchedule       = "صيغة التاريخ أو الوقت غير صحيحة"
    msgBadResult         = "صيغة النتيجة غير صحيحة"
    msgBadImage          = "الصورة يجب أن تكون jpeg أو png وبحجم لا يتجاوز 10 ميجابايت"
)

// getUserID extracts the authenticated user id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := c.Get(middleware.CtxUserID).(uint64); ok && id != 0 {
        return id, nil
    }
    return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// formValues returns the request fields for JSON and form/multipart bodies
// alike.  JSON null becomes "" so an optional field can be cleared.
func formValues(c echo.Context) (url.Values, error) {
    ctype := c.Request().Header.Get(echo.HeaderContentType)
    if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
        return c.FormParams()
    }
    var raw map[string]any
    if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
        return nil, err
    }
    out := make(url.Values, len(raw))
    for k, v := range raw {
        switch t := v.(type) {
        case nil:
            out.Set(k, "")
        case string:
            out.Set(k, t)
        case float64:
            out.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
        default:
            out.Set(k, fmt.Sprint(t))
        }
    }
    return out, nil
}

// field returns a pointer to the trimmed value of key, or nil when absent.
func field(v url.Values, key string) *string {
    if _, ok := v[key]; !ok {
        return nil
    }
    s := strings.TrimSpace(v.Get(key))
    return &s
}

func value(v url.Values, key string) string {
    return strings.TrimSpace(v.Get(key))
}

// formFile returns the uploaded file under name, or nil when none was sent.
func formFile(c echo.Context, name string) *multipart.FileHeader {
    fh, err := c.FormFile(name)
    if err != nil {
        return nil
    }
    return fh
}

// base carries what every handler needs to report failures.
type base struct {
    Log logrus.FieldLogger
}

// fail translates err into the HTTP response the admin panel expects.
func (b base) fail(c echo.Context, err error) error {
    var (
        mse *match.MalformedScheduleError
        mre *match.MalformedResultError
        te  *service.TransitionError
    )
    if fields, ok := fieldErrors(err); ok {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": fields})
    }
    switch {
    case errors.As(err, &mse):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error(), "message": msgBadSchedule})
    case errors.As(err, &mre):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error(), "message": msgBadResult})
    case errors.As(err, &te):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrUnsupported):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error(), "message": msgBadImage})
    case errors.Is(err, repository.ErrPredictionsClosed):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "predictions closed", "message": msgPredictionsClosed})
    case errors.Is(err, repository.ErrCapacityExceeded):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "message": msgCapacity})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error(), "message": msgNotFound})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "resource changed concurrently, retry"})
    }
    b.Log.WithError(err).WithField("path", c.Path()).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// badRequest answers 400 with a plain error text.
func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
