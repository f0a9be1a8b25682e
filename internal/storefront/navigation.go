package storefront

import (
	"fmt"
	"strings"
)

// View identifica una pagina de la tienda.
type View string

const (
	ViewHome       View = "home"
	ViewBrowse     View = "browse"
	ViewProduct    View = "product"
	ViewDashboard  View = "dashboard"
	ViewAuth       View = "auth"
	ViewOnboarding View = "onboarding"
	ViewAddProduct View = "add-product"
)

var views = []View{ViewHome, ViewBrowse, ViewProduct, ViewDashboard, ViewAuth, ViewOnboarding, ViewAddProduct}

func (v View) Valid() bool {
	for _, known := range views {
		if v == known {
			return true
		}
	}
	return false
}

// Protected reporta si la vista exige un usuario autenticado.
func (v View) Protected() bool {
	return v == ViewDashboard || v == ViewAddProduct
}

// ParseView convierte un identificador textual en View.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", &ValidationError{Field: "view", Message: fmt.Sprintf("unknown view %q", s)}
	}
	return v, nil
}

// NavRequest es la forma canonica de una peticion de navegacion.
type NavRequest struct {
	View       View
	ProductID  string
	SearchTerm string
}

// Destination es lo que acepta Navigate: una View suelta o un NavRequest.
type Destination interface {
	request() NavRequest
}

func (v View) request() NavRequest { return NavRequest{View: v} }

func (r NavRequest) request() NavRequest { return r }

// ParseRequest arma una peticion desde texto: el argumento es el id de producto en
// product y el termino de busqueda en browse; en otras vistas se ignora.
func ParseRequest(view string, args ...string) (NavRequest, error) {
	v, err := ParseView(view)
	if err != nil {
		return NavRequest{}, err
	}
	req := NavRequest{View: v}
	arg := strings.TrimSpace(strings.Join(args, " "))
	switch v {
	case ViewProduct:
		req.ProductID = arg
	case ViewBrowse:
		req.SearchTerm = arg
	}
	return req, nil
}

// To arma una peticion sin parametros.
func To(v View) NavRequest { return NavRequest{View: v} }

type NavigationState struct {
	CurrentView       View
	SelectedProductID string
	SearchTerm        string
}

// Navigator aplica las reglas de acceso a cada navegacion y a cada cambio de usuario.
// No es seguro para uso concurrente; App lo protege con su mutex.
type Navigator struct {
	state NavigationState
	user  *User
}

func NewNavigator() *Navigator {
	return &Navigator{state: NavigationState{CurrentView: ViewHome}}
}

func (n *Navigator) State() NavigationState { return n.state }

// Navigate normaliza el destino y lo resuelve contra el usuario actual.
func (n *Navigator) Navigate(dest Destination) (NavigationState, error) {
	if dest == nil {
		return n.state, &ValidationError{Field: "view", Message: "view is required"}
	}
	req := dest.request()
	if !req.View.Valid() {
		return n.state, &ValidationError{Field: "view", Message: fmt.Sprintf("unknown view %q", req.View)}
	}
	n.state = resolve(req, n.user)
	return n.state, nil
}

// NavigateString navega a partir de un identificador textual.
func (n *Navigator) NavigateString(id string) (NavigationState, error) {
	v, err := ParseView(id)
	if err != nil {
		return n.state, err
	}
	return n.Navigate(v)
}

// SetUser registra el usuario vigente y reevalua la vista actual con sus parametros.
func (n *Navigator) SetUser(u *User) NavigationState {
	n.user = u
	n.state = resolve(NavRequest{
		View:       n.state.CurrentView,
		ProductID:  n.state.SelectedProductID,
		SearchTerm: n.state.SearchTerm,
	}, u)
	return n.state
}

func resolve(req NavRequest, u *User) NavigationState {
	switch {
	case u != nil && u.NeedsOnboarding && req.View != ViewOnboarding:
		return NavigationState{CurrentView: ViewOnboarding}
	case u == nil && req.View.Protected():
		return NavigationState{CurrentView: ViewAuth}
	case u != nil && !u.NeedsOnboarding && req.View == ViewOnboarding:
		return NavigationState{CurrentView: ViewDashboard}
	}
	return NavigationState{
		CurrentView:       req.View,
		SelectedProductID: strings.TrimSpace(req.ProductID),
		SearchTerm:        strings.TrimSpace(req.SearchTerm),
	}
}
