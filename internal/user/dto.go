package user

import (
	errors "github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/core/common/validation"
)

// RegisterDTO provisions an account. The seeder is its only caller; there is no sign-up endpoint.
type RegisterDTO struct {
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	IsStaff   bool     `yaml:"is_staff"`
	Groups    []string `yaml:"groups"`
}

func (d RegisterDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(150)
	v.Field("password", d.Password).Required()
	v.Field("first_name", d.FirstName).MaxLength(150)
	v.Field("last_name", d.LastName).MaxLength(150)
	for _, g := range d.Groups {
		v.Field("groups", g).Required().MaxLength(150)
	}
	return v.Validate()
}
