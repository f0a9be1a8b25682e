package domain

import "time"

// AccountType indica si la cuenta compra o vende productos.
type AccountType string

const (
	AccountTypeSeller AccountType = "seller"
	AccountTypeBuyer  AccountType = "buyer"
)

// Valid reporta si el valor es uno de los tipos conocidos.
func (t AccountType) Valid() bool {
	return t == AccountTypeSeller || t == AccountTypeBuyer
}

type User struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	Name            string      `json:"name"`
	AccountType     AccountType `json:"account_type,omitempty"`
	Company         string      `json:"company,omitempty"`
	AuthProvider    string      `json:"auth_provider,omitempty"`
	AuthSubject     string      `json:"-"`
	PasswordHash    string      `json:"-"`
	Verified        bool        `json:"verified"`
	EmailVerifiedAt *time.Time  `json:"email_verified_at,omitempty"`
	// NeedsOnboarding es nil en registros anteriores a la columna.
	NeedsOnboarding *bool      `json:"needs_onboarding,omitempty"`
	OtpCodeHash     string     `json:"-"`
	OtpExpiresAt    *time.Time `json:"otp_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EmailVerified reporta si el correo fue verificado (OTP u OAuth).
func (u User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// BoolPtr devuelve un puntero al valor dado.
func BoolPtr(v bool) *bool {
	return &v
}
