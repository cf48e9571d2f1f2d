package model

import "time"

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Account represents a user's account with its current balance
type Account struct {
	ID           int64      `json:"id"`
	Login        string     `json:"login"` // phone-shaped, unique, immutable
	PasswordHash string     `json:"-"`     // Do not expose password hash in JSON responses
	Balance      int64      `json:"balance"` // In minor units (e.g., cents), never negative
	FirstName    *string    `json:"first_name,omitempty"`
	LastName     *string    `json:"last_name,omitempty"`
	Patronymic   *string    `json:"patronymic,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Gender       *string    `json:"gender,omitempty"` // "male" or "female"
	Birthday     *time.Time `json:"birthday,omitempty"`
}

// ProfilePatch carries a partial profile update: only non-nil fields
// overwrite the corresponding account fields
type ProfilePatch struct {
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Patronymic *string    `json:"patronymic,omitempty"`
	Email      *string    `json:"email,omitempty" binding:"omitempty,email"`
	Gender     *string    `json:"gender,omitempty" binding:"omitempty,oneof=male female"`
	Birthday   *time.Time `json:"birthday,omitempty"`
}

// Apply overwrites the account's profile fields with the patch's non-nil ones
func (p ProfilePatch) Apply(acc *Account) {
	if p.FirstName != nil {
		acc.FirstName = p.FirstName
	}
	if p.LastName != nil {
		acc.LastName = p.LastName
	}
	if p.Patronymic != nil {
		acc.Patronymic = p.Patronymic
	}
	if p.Email != nil {
		acc.Email = p.Email
	}
	if p.Gender != nil {
		acc.Gender = p.Gender
	}
	if p.Birthday != nil {
		acc.Birthday = p.Birthday
	}
}

// Profile is the outward view of an account: profile fields only,
// never the credential hash or the raw balance
type Profile struct {
	Login      string     `json:"login"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Patronymic *string    `json:"patronymic,omitempty"`
	Email      *string    `json:"email,omitempty"`
	Gender     *string    `json:"gender,omitempty"`
	Birthday   *time.Time `json:"birthday,omitempty"`
}

// NewProfile builds the outward profile view of an account
func NewProfile(acc *Account) Profile {
	return Profile{
		Login:      acc.Login,
		FirstName:  acc.FirstName,
		LastName:   acc.LastName,
		Patronymic: acc.Patronymic,
		Email:      acc.Email,
		Gender:     acc.Gender,
		Birthday:   acc.Birthday,
	}
}
