package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Add appends non-nil field errors.
func (e *Errs) Add(errs ...*ErrField) {
	for _, ef := range errs {
		if ef != nil {
			*e = append(*e, *ef)
		}
	}
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func Empty(field, value, why string) *ErrField {
	if strings.TrimSpace(value) != "" {
		return &ErrField{Field: field, Msg: why}
	}
	return nil
}

func MaxInt(field string, v, limit int64) *ErrField {
	if v > limit {
		return &ErrField{Field: field, Msg: "must be <= " + strconv.FormatInt(limit, 10)}
	}
	return nil
}

func Positive(field string, v decimal.Decimal) *ErrField {
	if !v.IsPositive() {
		return &ErrField{Field: field, Msg: "must be > 0"}
	}
	return nil
}

func MinDecimal(field string, v, min decimal.Decimal) *ErrField {
	if v.LessThan(min) {
		return &ErrField{Field: field, Msg: "must be >= " + min.String()}
	}
	return nil
}

func MaxDecimal(field string, v, limit decimal.Decimal) *ErrField {
	if v.GreaterThan(limit) {
		return &ErrField{Field: field, Msg: "must be <= " + limit.String()}
	}
	return nil
}

// MaxScale rejects values with more fraction digits than the currency's minor unit.
func MaxScale(field string, v decimal.Decimal, places int32) *ErrField {
	if !v.Equal(v.Truncate(places)) {
		return &ErrField{Field: field, Msg: "at most " + strconv.Itoa(int(places)) + " decimal places"}
	}
	return nil
}

func OneOf(field, value string, valid bool) *ErrField {
	if !valid {
		return &ErrField{Field: field, Msg: "invalid value " + strconv.Quote(value)}
	}
	return nil
}

var phoneRe = regexp.MustCompile(`^\+?[0-9]{9,13}$`)

// Phone accepts local (09xxxxxxxx) and international (+2519xxxxxxxx) numbers.
func Phone(field, value string) *ErrField {
	if ef := Required(field, value); ef != nil {
		return ef
	}
	if !phoneRe.MatchString(strings.TrimSpace(value)) {
		return &ErrField{Field: field, Msg: "invalid phone number"}
	}
	return nil
}

var accountRe = regexp.MustCompile(`^[0-9]{8,16}$`)

func BankAccount(field, value string) *ErrField {
	if ef := Required(field, value); ef != nil {
		return ef
	}
	if !accountRe.MatchString(strings.TrimSpace(value)) {
		return &ErrField{Field: field, Msg: "invalid account number"}
	}
	return nil
}
