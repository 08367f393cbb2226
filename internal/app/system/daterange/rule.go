package daterange

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Valid is an ozzo rule for string fields holding a date. Empty values pass;
// combine with validation.Required where a date is mandatory.
var Valid = validation.By(func(v interface{}) error {
	value, isNil := validation.Indirect(v)
	if isNil {
		return nil
	}
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := Parse(s, time.UTC); err != nil {
		return validation.NewError("validation_date", "must be a date (YYYY-MM-DD or RFC 3339)")
	}
	return nil
})
