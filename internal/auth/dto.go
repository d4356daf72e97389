package auth

import (
	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshDTO struct {
	Refresh string `json:"refresh"`
}

type VerifyDTO struct {
	Token string `json:"token"`
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

func (d RefreshDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("refresh", d.Refresh).Required()
	return v.Validate()
}

func (d VerifyDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("token", d.Token).Required()
	return v.Validate()
}
