package storefront

import (
	"fmt"
	"strings"
)

// Page es el resultado de renderizar una vista.
type Page struct {
	View  View
	Title string
	Body  []string
}

// Lines devuelve el texto listo para imprimir.
func (p Page) Lines() []string {
	lines := []string{p.Title, strings.Repeat("=", len(p.Title))}
	return append(lines, p.Body...)
}

// Render es una funcion pura del estado de navegacion y el usuario.
func Render(state NavigationState, u *User) Page {
	switch state.CurrentView {
	case ViewBrowse:
		return renderBrowse(state.SearchTerm)
	case ViewProduct:
		return renderProduct(state.SelectedProductID)
	case ViewDashboard:
		if u == nil {
			return renderAuth()
		}
		if u.AccountType == AccountTypeSeller {
			return renderSellerDashboard(u)
		}
		return renderBuyerDashboard(u)
	case ViewAuth:
		return renderAuth()
	case ViewOnboarding:
		return renderOnboarding(u)
	case ViewAddProduct:
		if u == nil {
			return renderAuth()
		}
		return renderAddProduct()
	default:
		return renderHome()
	}
}

func renderHome() Page {
	body := []string{"Discover premium software built by independent developers.", "", "Featured:"}
	for _, p := range Catalog()[:3] {
		body = append(body, productLine(p))
	}
	return Page{View: ViewHome, Title: "Majji Marketplace", Body: body}
}

func renderBrowse(term string) Page {
	title := "Browse"
	if term != "" {
		title = fmt.Sprintf("Browse: results for %q", term)
	}
	products := FilterProducts(term)
	if len(products) == 0 {
		return Page{View: ViewBrowse, Title: title, Body: []string{"No products found."}}
	}
	body := make([]string, 0, len(products))
	for _, p := range products {
		body = append(body, productLine(p))
	}
	return Page{View: ViewBrowse, Title: title, Body: body}
}

func renderProduct(id string) Page {
	p, ok := FindProduct(id)
	if !ok {
		return Page{View: ViewProduct, Title: "Product not found", Body: []string{"Go back to browse to find another product."}}
	}
	return Page{View: ViewProduct, Title: p.Name, Body: []string{
		p.Description,
		"Category: " + p.Category,
		fmt.Sprintf("Price: $%.2f", p.Price),
		"Seller: " + p.Seller,
		"Tags: " + strings.Join(p.Tags, ", "),
	}}
}

func renderAuth() Page {
	return Page{View: ViewAuth, Title: "Sign in to your account", Body: []string{
		"Welcome back to Majji",
		"login <email> <password> | signup <email> <password> | google",
	}}
}

func renderOnboarding(u *User) Page {
	if u == nil {
		return Page{View: ViewOnboarding, Title: "Complete your profile", Body: []string{"Please sign in to continue"}}
	}
	return Page{View: ViewOnboarding, Title: "Complete your profile", Body: []string{
		"Welcome to Majji, " + u.Email,
		"Tell us about yourself to get started: run onboard.",
	}}
}

func renderAddProduct() Page {
	return Page{View: ViewAddProduct, Title: "Add New Product", Body: []string{
		"Categories: " + strings.Join(Categories, ", "),
		"Required: name, description, category, price, tags (comma separated).",
	}}
}

func renderSellerDashboard(u *User) Page {
	body := []string{"Welcome back, " + displayName(u), memberSince(u), "", "Your products:"}
	count := 0
	for _, p := range Catalog() {
		if p.Seller == u.Name {
			body = append(body, productLine(p))
			count++
		}
	}
	if count == 0 {
		body = append(body, "  none yet: go add-product")
	}
	return Page{View: ViewDashboard, Title: "Seller Dashboard", Body: body}
}

func renderBuyerDashboard(u *User) Page {
	body := []string{"Welcome back, " + displayName(u)}
	if u.Company != "" {
		body = append(body, "Company: "+u.Company)
	}
	body = append(body, memberSince(u), "", "No purchases yet: go browse")
	return Page{View: ViewDashboard, Title: "Buyer Dashboard", Body: body}
}

// RenderOnboarding describe el paso actual del asistente.
func RenderOnboarding(step OnboardingStep, d OnboardingDraft, err error) []string {
	lines := []string{fmt.Sprintf("Step %d of 3 (%s)", int(step), step)}
	switch step {
	case StepIdentity:
		lines = append(lines, "Name: "+d.Name, "Account type: "+string(d.AccountType))
		if d.AccountType == AccountTypeBuyer {
			lines = append(lines, "Company: "+d.Company)
		}
	case StepInterests:
		for i, interest := range InterestCatalog {
			mark := " "
			if d.Interests[interest] {
				mark = "x"
			}
			lines = append(lines, fmt.Sprintf("[%s] %d. %s", mark, i+1, interest))
		}
	case StepSummary:
		lines = append(lines, "Name: "+d.Name, "Account type: "+string(d.AccountType))
		if d.Company != "" {
			lines = append(lines, "Company: "+d.Company)
		}
		if d.Bio != "" {
			lines = append(lines, "Bio: "+d.Bio)
		}
		if selected := d.SelectedInterests(); len(selected) > 0 {
			lines = append(lines, "Interests: "+strings.Join(selected, ", "))
		}
	}
	if err != nil {
		lines = append(lines, "Error: "+err.Error())
	}
	return lines
}

func productLine(p Product) string {
	return fmt.Sprintf("  [%s] %s (%s) $%.2f", p.ID, p.Name, p.Category, p.Price)
}

func displayName(u *User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func memberSince(u *User) string {
	if u.JoinedDate.IsZero() {
		return ""
	}
	return "Member since " + u.JoinedDate.Format("January 2006")
}
