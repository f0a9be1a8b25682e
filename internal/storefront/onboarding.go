package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"majji-market/internal/authclient"
)

// OnboardingStep es un paso del asistente, en orden.
type OnboardingStep int

const (
	StepIdentity OnboardingStep = iota + 1
	StepInterests
	StepSummary
)

func (s OnboardingStep) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepInterests:
		return "interests"
	case StepSummary:
		return "summary"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// InterestCatalog es la lista fija de intereses seleccionables.
var InterestCatalog = []string{
	"Web Development",
	"Mobile Apps",
	"E-commerce",
	"SaaS Tools",
	"WordPress Plugins",
	"API Services",
	"UI/UX Design",
	"Analytics",
	"Marketing Tools",
	"Productivity Apps",
}

const onboardingFailed = "Failed to complete onboarding"

// OnboardingDraft acumula los datos del asistente. Bio e intereses son solo locales.
type OnboardingDraft struct {
	Name        string
	AccountType AccountType
	Company     string
	Bio         string
	Interests   map[string]bool
}

// SelectedInterests devuelve los intereses marcados en el orden del catalogo.
func (d OnboardingDraft) SelectedInterests() []string {
	out := make([]string, 0, len(d.Interests))
	for _, interest := range InterestCatalog {
		if d.Interests[interest] {
			out = append(out, interest)
		}
	}
	return out
}

func newDraft() OnboardingDraft {
	return OnboardingDraft{AccountType: AccountTypeBuyer, Interests: make(map[string]bool)}
}

// Onboarding es el asistente de tres pasos que completa el perfil.
// No es seguro para uso concurrente; App lo protege con su mutex.
type Onboarding struct {
	adapter SessionAdapter
	users   *Synchronizer
	nav     *Navigator

	step  OnboardingStep
	draft OnboardingDraft
	err   error
	// typeChosen indica que el usuario eligio el tipo de cuenta a mano.
	typeChosen bool
}

func NewOnboarding(adapter SessionAdapter, users *Synchronizer, nav *Navigator) *Onboarding {
	return &Onboarding{adapter: adapter, users: users, nav: nav, step: StepIdentity, draft: newDraft()}
}

func (o *Onboarding) Step() OnboardingStep { return o.step }

// Draft devuelve una copia del borrador.
func (o *Onboarding) Draft() OnboardingDraft {
	d := o.draft
	d.Interests = make(map[string]bool, len(o.draft.Interests))
	for k, v := range o.draft.Interests {
		d.Interests[k] = v
	}
	return d
}

// Err es el ultimo error del paso actual, o nil.
func (o *Onboarding) Err() error { return o.err }

func (o *Onboarding) SetName(name string) { o.draft.Name = name }

func (o *Onboarding) SetCompany(company string) { o.draft.Company = company }

func (o *Onboarding) SetBio(bio string) { o.draft.Bio = bio }

func (o *Onboarding) SetAccountType(t AccountType) error {
	if !t.Valid() {
		return &ValidationError{Field: "accountType", Message: "Please choose seller or buyer"}
	}
	o.draft.AccountType = t
	o.typeChosen = true
	return nil
}

// ToggleInterest marca o desmarca un interes del catalogo.
func (o *Onboarding) ToggleInterest(interest string) error {
	for _, known := range InterestCatalog {
		if strings.EqualFold(known, strings.TrimSpace(interest)) {
			if o.draft.Interests[known] {
				delete(o.draft.Interests, known)
			} else {
				o.draft.Interests[known] = true
			}
			return nil
		}
	}
	return &ValidationError{Field: "interests", Message: fmt.Sprintf("unknown interest %q", interest)}
}

// Prefill completa los campos vacios del borrador sin pisar lo ya escrito.
func (o *Onboarding) Prefill(name string, accountType AccountType, company string) {
	if strings.TrimSpace(o.draft.Name) == "" {
		o.draft.Name = strings.TrimSpace(name)
	}
	if accountType.Valid() && !o.typeChosen {
		o.draft.AccountType = accountType
	}
	if strings.TrimSpace(o.draft.Company) == "" {
		o.draft.Company = strings.TrimSpace(company)
	}
}

// Next valida el paso actual y avanza. Solo el paso de identidad tiene validacion.
func (o *Onboarding) Next() error {
	if o.step == StepIdentity {
		if err := o.validateIdentity(); err != nil {
			o.err = err
			return err
		}
	}
	if o.step >= StepSummary {
		return nil
	}
	o.err = nil
	o.step++
	return nil
}

func (o *Onboarding) validateIdentity() error {
	if strings.TrimSpace(o.draft.Name) == "" {
		return &ValidationError{Field: "name", Message: "Please enter your name"}
	}
	if o.draft.AccountType == AccountTypeBuyer && strings.TrimSpace(o.draft.Company) == "" {
		return &ValidationError{Field: "company", Message: "Please enter your company name"}
	}
	return nil
}

// Back vuelve a un paso anterior conservando el borrador.
func (o *Onboarding) Back(step OnboardingStep) error {
	if step < StepIdentity || step >= o.step {
		return &ValidationError{Field: "step", Message: fmt.Sprintf("cannot go back to %s", step)}
	}
	o.step = step
	o.err = nil
	return nil
}

// Reset descarta el borrador y vuelve al primer paso.
func (o *Onboarding) Reset() {
	o.step = StepIdentity
	o.draft = newDraft()
	o.err = nil
	o.typeChosen = false
}

// Confirm envia el perfil desde el resumen. Si falla, el asistente queda en el
// resumen con el error y el borrador intacto para reintentar.
func (o *Onboarding) Confirm(ctx context.Context) error {
	update, err := o.prepare()
	if err != nil {
		return err
	}
	rec, err := o.adapter.UpdateProfile(ctx, update)
	return o.finish(rec, err)
}

// prepare arma el update sin tocar la red.
func (o *Onboarding) prepare() (ProfileUpdate, error) {
	if o.step != StepSummary {
		return ProfileUpdate{}, &ValidationError{Field: "step", Message: "onboarding is not on the summary step"}
	}
	if err := o.validateIdentity(); err != nil {
		return ProfileUpdate{}, err
	}
	o.err = nil
	name := strings.TrimSpace(o.draft.Name)
	accountType := o.draft.AccountType
	company := strings.TrimSpace(o.draft.Company)
	done := false
	return ProfileUpdate{
		Name:            &name,
		AccountType:     &accountType,
		Company:         &company,
		NeedsOnboarding: &done,
	}, nil
}

// finish aplica el resultado remoto: error en el resumen, o usuario actualizado y
// navegacion al dashboard. Si el usuario retrocedio mientras la llamada estaba en
// vuelo, un fallo lo devuelve al resumen para mostrar el error.
func (o *Onboarding) finish(rec authclient.UserRecord, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || strings.TrimSpace(err.Error()) == "" {
			err = fmt.Errorf("%s: %w", onboardingFailed, err)
		}
		o.step = StepSummary
		o.err = err
		return err
	}
	o.users.MarkOnboarded(rec)
	o.Reset()
	if _, err := o.nav.Navigate(ViewDashboard); err != nil {
		return err
	}
	return nil
}
