// Package document defines the query dialect shared by the document store executors.
//
// A Filter maps a field path to either a literal (equality) or an operator
// object such as {"$gte": 50, "$lte": 150}. Executors translate the same
// Filter to their native representation, so services never depend on a
// particular store.
package document

import (
	"context"
	"errors"
)

// IDField is the primary key of every document.
const IDField = "_id"

// Comparison operators understood by every executor.
const (
	OpEq  = "$eq"
	OpNe  = "$ne"
	OpGt  = "$gt"
	OpGte = "$gte"
	OpLt  = "$lt"
	OpLte = "$lte"
	OpIn  = "$in"
	OpNin = "$nin"
)

var (
	// ErrNotFound is returned when a lookup by id or filter matches nothing.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned when an id is not valid for the backing store.
	ErrInvalidID = errors.New("invalid document id")
	// ErrUnsupportedOperator is returned for filter operators outside the dialect.
	ErrUnsupportedOperator = errors.New("unsupported filter operator")
)

// Document is a decoded record. Store specific types (object ids, dates)
// are normalized to strings and time.Time before reaching callers.
type Document map[string]interface{}

// Filter represents field-based filtering criteria for document stores.
type Filter map[string]interface{}

// Sort specifies field and direction for one sort key.
type Sort struct {
	Field string
	Order SortOrder
}

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// QueryOptions describes a Find call. Sort keys apply in order.
// Projection lists the fields to return; empty returns whole documents.
// The id field is always returned. Zero Skip and Limit are ignored.
type QueryOptions struct {
	Filter     Filter
	Sort       []Sort
	Projection []string
	Skip       int64
	Limit      int64
}

// Executor runs queries and writes against one document store.
type Executor interface {
	Find(ctx context.Context, collection string, opts QueryOptions) ([]Document, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	// InsertOne stores doc and returns it with its assigned id.
	InsertOne(ctx context.Context, collection string, doc Document) (Document, error)
	// UpdateByID sets the given fields and returns the updated document.
	UpdateByID(ctx context.Context, collection, id string, set Document) (Document, error)
	// DeleteByID removes the document and returns its last state.
	DeleteByID(ctx context.Context, collection, id string) (Document, error)
}
