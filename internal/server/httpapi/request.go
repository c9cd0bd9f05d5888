package httpapi

import (
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
)

type SignupCredentialsRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Nickname        string `json:"nickname"`
}

func (r *SignupCredentialsRequest) Validate() *common.ValidationError {
	v := common.NewValidationError()
	validateEmail(v, r.Email)
	if r.Password == "" {
		v.Add("password", "password is required")
	}
	if r.PasswordConfirm != r.Password {
		v.Add("passwordConfirm", "passwords must match")
	}
	if strings.TrimSpace(r.Nickname) == "" {
		v.Add("nickname", "nickname is required")
	}
	if v.Empty() {
		return nil
	}
	return v
}

type SignInCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignInCredentialsRequest) Validate() *common.ValidationError {
	v := common.NewValidationError()
	validateEmail(v, r.Email)
	if r.Password == "" {
		v.Add("password", "password is required")
	}
	if v.Empty() {
		return nil
	}
	return v
}

// AssertionRequest carries a third-party identity token, used by both the
// signup and sign-in assertion endpoints.
type AssertionRequest struct {
	JWT string `json:"jwt"`
}

func (r *AssertionRequest) Validate() *common.ValidationError {
	v := common.NewValidationError()
	if strings.TrimSpace(r.JWT) == "" {
		v.Add("jwt", "jwt is required")
	}
	if v.Empty() {
		return nil
	}
	return v
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() *common.ValidationError {
	v := common.NewValidationError()
	if strings.TrimSpace(r.RefreshToken) == "" {
		v.Add("refreshToken", "refreshToken is required")
	}
	if v.Empty() {
		return nil
	}
	return v
}

func validateEmail(v *common.ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		v.Add("email", "email is required")
		return
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		v.Add("email", "email must be a valid email address")
	}
}
