package handler

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-admin/internal/match"
	"github.com/iliyamo/venue-admin/internal/model"
)

// Validator plugs go-playground/validator into echo's e.Validator with the
// venue-specific tags registered.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers room_category, room_status, booking_status,
// match_status, ymd, hhmm and money.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	oneOf := func(set []string) validator.Func {
		return func(fl validator.FieldLevel) bool { return slices.Contains(set, fl.Field().String()) }
	}
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("room_category", oneOf(model.RoomCategories))
	must("room_status", oneOf(model.RoomStatuses))
	must("booking_status", oneOf(model.BookingStatuses))
	must("match_status", func(fl validator.FieldLevel) bool {
		_, err := match.ParseStatus(fl.Field().String())
		return err == nil
	})
	must("ymd", layout("2006-01-02"))
	must("hhmm", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return parses("15:04", s) || parses("15:04:05", s)
	})
	must("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && d.Exponent() >= -2
	})
	return &Validator{v: v}
}

func layout(l string) validator.Func {
	return func(fl validator.FieldLevel) bool { return parses(l, fl.Field().String()) }
}

func parses(layout, s string) bool {
	_, err := time.Parse(layout, s)
	return err == nil
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// fieldErrors maps each failing field to the rule it broke.
func fieldErrors(err error) (map[string]string, bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, false
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out, true
}
