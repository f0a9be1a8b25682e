package storefront

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductDraft_Validate(t *testing.T) {
	err := ProductDraft{Price: "abc", Tags: " , "}.Validate()
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Equal(t, ValidationErrors{
		"name":        "Product name is required",
		"description": "Description is required",
		"category":    "Category is required",
		"price":       "Valid price is required",
		"tags":        "At least one tag is required",
	}, errs)

	for _, price := range []string{"0", "-5", "NaN", "+Inf", ""} {
		err := ProductDraft{Name: "n", Description: "d", Category: "Mobile App", Price: price, Tags: "a"}.Validate()
		require.ErrorAs(t, err, &errs, price)
		require.Len(t, errs, 1)
		require.Contains(t, errs, "price")
	}

	ok := ProductDraft{Name: "CMS Kit", Description: "Headless CMS", Category: "Web Application", Price: "49.99", Tags: "cms, react"}
	require.NoError(t, ok.Validate())
}

func TestParseTags(t *testing.T) {
	require.Equal(t, []string{"cms", "react"}, ParseTags(" cms,, react ,"))
	require.Empty(t, ParseTags(""))
}

func TestCatalogLookup(t *testing.T) {
	p, ok := FindProduct("3")
	require.True(t, ok)
	require.Equal(t, "PressCMS Toolkit", p.Name)

	_, ok = FindProduct("404")
	require.False(t, ok)

	require.Len(t, FilterProducts(""), len(Catalog()))
	found := FilterProducts("CMS")
	require.Len(t, found, 1)
	require.Equal(t, "3", found[0].ID)
}
