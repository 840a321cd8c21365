package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type signUp struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Username        string `json:"username" validate:"required,username"`
	SkinType        string `json:"skin_type" validate:"omitempty,skintype"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetails_UsesJSONNamesAndLocalizedMessages(t *testing.T) {
	err := newValidator().Struct(signUp{
		Email:           "not-an-email",
		Password:        "12345",
		ConfirmPassword: "123456",
		Username:        "ab",
		SkinType:        "mixed",
	})

	d := ToDetails(err)
	assert.Equal(t, "некорректный email", d["email"])
	assert.Equal(t, "пароль должен быть не короче 6 символов", d["password"])
	assert.Equal(t, "пароли не совпадают", d["confirm_password"])
	assert.Equal(t, "имя пользователя должно быть не короче 3 символов", d["username"])
	assert.Equal(t, "неизвестный тип кожи", d["skin_type"])
}

func TestToDetails_ValidPayload(t *testing.T) {
	err := newValidator().Struct(signUp{
		Email: "a@b.co", Password: "123456", ConfirmPassword: "123456", Username: "anna", SkinType: "dry",
	})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(err))
}
