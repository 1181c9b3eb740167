package catalog

import (
	"fmt"
	"strings"

	"github.com/nimburion/catalog/pkg/repository/document"
)

// FieldKind is the stored type of a schema field. Query values are coerced to it.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindInteger
	KindBool
	KindTime
)

// Schema lists the fields of a collection. It is the allow-list for sort and select.
type Schema map[string]FieldKind

// Has reports whether field is a top-level schema field.
func (s Schema) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Kind returns the kind of a field path. Paths outside the schema, dotted
// paths included, are treated as strings.
func (s Schema) Kind(path string) FieldKind {
	if kind, ok := s[path]; ok {
		return kind
	}
	return KindString
}

// ProductSchema describes documents of the products collection.
var ProductSchema = Schema{
	document.IDField: KindString,
	"name":           KindString,
	"price":          KindNumber,
	"description":    KindString,
	"category":       KindString,
	"company":        KindString,
	"image":          KindString,
	"rating":         KindNumber,
	"stock":          KindInteger,
	"featured":       KindBool,
	"createdAt":      KindTime,
}

// ProductInput is the JSON body of product writes. Nil fields are left untouched on update.
type ProductInput struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Company     *string  `json:"company"`
	Image       *string  `json:"image"`
	Rating      *float64 `json:"rating"`
	Stock       *int64   `json:"stock"`
	Featured    *bool    `json:"featured"`
}

// Validate checks ranges. With partial=false name and price are required.
func (in ProductInput) Validate(partial bool) error {
	var problems []string
	if !partial {
		if in.Name == nil {
			problems = append(problems, "name is required")
		}
		if in.Price == nil {
			problems = append(problems, "price is required")
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		problems = append(problems, "name must not be empty")
	}
	if in.Price != nil && *in.Price < 0 {
		problems = append(problems, "price must be >= 0")
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if in.Stock != nil && *in.Stock < 0 {
		problems = append(problems, "stock must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Fields returns the non-nil fields as a document.
func (in ProductInput) Fields() document.Document {
	doc := document.Document{}
	setString := func(key string, v *string) {
		if v != nil {
			doc[key] = strings.TrimSpace(*v)
		}
	}
	setString("name", in.Name)
	setString("description", in.Description)
	setString("category", in.Category)
	setString("company", in.Company)
	setString("image", in.Image)
	if in.Price != nil {
		doc["price"] = *in.Price
	}
	if in.Rating != nil {
		doc["rating"] = *in.Rating
	}
	if in.Stock != nil {
		doc["stock"] = *in.Stock
	}
	if in.Featured != nil {
		doc["featured"] = *in.Featured
	}
	return doc
}
