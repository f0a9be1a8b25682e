package storefront

import (
	"math"
	"strconv"
	"strings"
)

// Categories son las categorias aceptadas al publicar un producto.
var Categories = []string{
	"Web Application",
	"Mobile App",
	"WordPress Plugin",
	"API/Service",
	"Component Library",
	"Chrome Extension",
	"Desktop Application",
}

// Product es un producto del catalogo de demostracion; el catalogo no se persiste.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	Seller      string
	Tags        []string
}

var catalog = []Product{
	{ID: "1", Name: "TaskFlow Pro", Description: "Project management SaaS with kanban boards and time tracking.", Category: "Web Application", Price: 299, Seller: "Sarah Johnson", Tags: []string{"saas", "productivity"}},
	{ID: "2", Name: "ShopKit", Description: "Headless e-commerce starter with cart and checkout flows.", Category: "Component Library", Price: 149, Seller: "Sarah Johnson", Tags: []string{"e-commerce", "react"}},
	{ID: "3", Name: "PressCMS Toolkit", Description: "WordPress plugin bundle for custom post types and SEO.", Category: "WordPress Plugin", Price: 79, Seller: "Alex Rivera", Tags: []string{"wordpress", "cms"}},
	{ID: "4", Name: "FitTrack Mobile", Description: "Cross-platform fitness tracking app with offline sync.", Category: "Mobile App", Price: 499, Seller: "Alex Rivera", Tags: []string{"mobile", "health"}},
	{ID: "5", Name: "MetricsHub API", Description: "Analytics ingestion API with dashboards and alerts.", Category: "API/Service", Price: 199, Seller: "Priya Patel", Tags: []string{"analytics", "api"}},
}

// Catalog devuelve una copia del catalogo.
func Catalog() []Product {
	out := make([]Product, len(catalog))
	copy(out, catalog)
	return out
}

// FindProduct busca un producto por id.
func FindProduct(id string) (Product, bool) {
	for _, p := range catalog {
		if p.ID == strings.TrimSpace(id) {
			return p, true
		}
	}
	return Product{}, false
}

// FilterProducts filtra por coincidencia simple en nombre, descripcion, categoria o tags.
func FilterProducts(term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Catalog()
	}
	var out []Product
	for _, p := range catalog {
		haystack := strings.ToLower(p.Name + " " + p.Description + " " + p.Category + " " + strings.Join(p.Tags, " "))
		if strings.Contains(haystack, term) {
			out = append(out, p)
		}
	}
	return out
}

// ProductDraft es el formulario de alta de producto.
type ProductDraft struct {
	Name        string
	Description string
	Category    string
	Price       string
	Tags        string
}

// Validate revisa el formulario y devuelve los errores por campo, o nil.
func (d ProductDraft) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = "Product name is required"
	}
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = "Description is required"
	}
	if !knownCategory(d.Category) {
		errs["category"] = "Category is required"
	}
	if price, err := strconv.ParseFloat(strings.TrimSpace(d.Price), 64); err != nil || !(price > 0) || math.IsInf(price, 1) {
		errs["price"] = "Valid price is required"
	}
	if len(ParseTags(d.Tags)) == 0 {
		errs["tags"] = "At least one tag is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ParseTags separa una lista de tags por comas, sin vacios.
func ParseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func knownCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
