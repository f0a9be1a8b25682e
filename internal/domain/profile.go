package domain

// ProfileUpdate es una actualizacion parcial del perfil; nil significa "sin cambio".
type ProfileUpdate struct {
	Name            *string      `json:"name,omitempty"`
	AccountType     *AccountType `json:"account_type,omitempty"`
	Company         *string      `json:"company,omitempty"`
	NeedsOnboarding *bool        `json:"needs_onboarding,omitempty"`
}

// Empty reporta si la actualizacion no trae ningun campo.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.AccountType == nil && p.Company == nil && p.NeedsOnboarding == nil
}
