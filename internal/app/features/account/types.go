package account

import (
	"strings"

	"github.com/dalemusser/stratadaily/internal/app/system/authutil"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// passwordRule applies the shared password policy.
var passwordRule = validation.By(func(v interface{}) error {
	s, _ := v.(string)
	return authutil.ValidatePassword(s)
})

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, passwordRule),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *forgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
	)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (r resetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, passwordRule),
	)
}

type profileRequest struct {
	Name       *string `json:"name"`
	ProfilePic *string `json:"profilePic"`
}

func (r *profileRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Name == nil && r.ProfilePic == nil {
		return validation.Errors{"name": validation.NewError("validation_profile_empty", "provide name or profilePic")}
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.RuneLength(1, 100)),
		validation.Field(&r.ProfilePic, is.URL),
	)
}

// session is returned by login and refresh. The tokens are also set as
// cookies; body copies serve clients that cannot read cookies.
type session struct {
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Counts summarizes how much the user has stored.
type Counts struct {
	Songs     int64 `json:"songs"`
	Bookmarks int64 `json:"bookmarks"`
	Projects  int64 `json:"projects"`
	Todos     int64 `json:"todos"`
	Events    int64 `json:"events"`
}

type currentUser struct {
	*models.User
	Counts Counts `json:"counts"`
}
