package attributes

import "context"

// Entity identifies the owner of an attribute.
type Entity struct {
	Kind string
	ID   int64
}

// Attribute is a row returned by the bulk key query.
type Attribute struct {
	EntityID int64
	StoreID  int
	Value    string
}

type Store interface {
	// Get returns ok=false when no value is stored.
	Get(ctx context.Context, entity Entity, key string, storeID int) (value string, ok bool, err error)
	Set(ctx context.Context, entity Entity, key, value string, storeID int) error
	// ListByKey returns all values stored under key for entities of the given
	// kind, ordered by entity id and store id.
	ListByKey(ctx context.Context, key, entityKind string) ([]Attribute, error)
}
