package todos

import (
	"strings"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/daterange"
	"github.com/dalemusser/stratadaily/internal/app/system/htmlsanitize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type createRequest struct {
	Name        string `json:"todoName"`
	Description string `json:"todoDescription"`
	DueDate     string `json:"dueDate"`
	Label       string `json:"label"`
	Priority    bool   `json:"priority"`
}

func (r *createRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Label = strings.TrimSpace(r.Label)
	r.Description = htmlsanitize.Text(r.Description)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.Label, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&r.Description, validation.RuneLength(0, 5000)),
		validation.Field(&r.DueDate, daterange.Valid),
	)
}

// due returns the parsed due date, or now when none was given.
func (r *createRequest) due(now time.Time) time.Time {
	t, err := daterange.ParseOr(r.DueDate, now, time.UTC)
	if err != nil {
		return now
	}
	return t.UTC()
}

type updateRequest struct {
	Name        *string `json:"todoName"`
	Description *string `json:"todoDescription"`
	DueDate     *string `json:"dueDate"`
	Label       *string `json:"label"`
	Priority    *bool   `json:"priority"`
	Done        *bool   `json:"done"`
}

func (r *updateRequest) Validate() error {
	if r.Name != nil {
		v := strings.TrimSpace(*r.Name)
		r.Name = &v
	}
	if r.Label != nil {
		v := strings.TrimSpace(*r.Label)
		r.Label = &v
	}
	r.Description = htmlsanitize.TextPtr(r.Description)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.RuneLength(1, 200)),
		validation.Field(&r.Label, validation.NilOrNotEmpty, validation.RuneLength(1, 50)),
		validation.Field(&r.Description, validation.RuneLength(0, 5000)),
		validation.Field(&r.DueDate, validation.NilOrNotEmpty, daterange.Valid),
	)
}

type statusRequest struct {
	Done *bool `json:"done"`
}

func (r statusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Done, validation.NotNil),
	)
}
