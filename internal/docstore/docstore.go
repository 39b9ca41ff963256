// Package docstore is the one place that knows how documents are keyed and
// encoded. Both the badge and journey subsystems persist exclusively through
// this facade, so partitioning and write-atomicity invariants live here and
// nowhere else.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxBatchOps is the hard ceiling on operations per batch write. Callers
// exceeding it must chunk and commit chunks sequentially.
const MaxBatchOps = 500

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrBatchTooLarge = errors.New("docstore: batch exceeds max operations")
	ErrInvalidKey    = errors.New("docstore: key part contains reserved separator")
)

// validateKeyParts rejects owner ids, collection names and doc ids holding
// the ':' key separator. Without this, an owner id like "a:b" builds a key
// that parses back as owner "a", silently dropping that owner's records and
// letting a crafted id under "a" alias keys belonging to "a:b".
func validateKeyParts(parts ...string) error {
	for _, part := range parts {
		if strings.Contains(part, ":") {
			return fmt.Errorf("%w: %q", ErrInvalidKey, part)
		}
	}
	return nil
}

// Doc is a stored document. OwnerID is empty for flat collections.
type Doc struct {
	OwnerID    string
	Collection string
	ID         string
	Data       []byte
}

type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

// Op is a single operation inside a batch write.
type Op struct {
	Kind       OpKind
	OwnerID    string
	Collection string
	ID         string
	Data       []byte
}

// Store is the capability-limited persistence contract consumed by the
// services. An empty ownerID addresses the flat, globally-queried layout;
// a non-empty ownerID addresses that owner's subcollection. Collection
// names, owner ids and doc ids must not contain ':'; implementations
// enforce this and fail with ErrInvalidKey before touching storage.
type Store interface {
	// Get returns the raw document or ErrNotFound.
	Get(ctx context.Context, ownerID, collection, id string) ([]byte, error)
	// Put writes a document unconditionally.
	Put(ctx context.Context, ownerID, collection, id string, data []byte) error
	// Create writes the document only if it does not exist and reports
	// whether it was created. This is the store-native conditional write
	// that makes at-most-once grants a storage guarantee.
	Create(ctx context.Context, ownerID, collection, id string, data []byte) (bool, error)
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, ownerID, collection, id string) error
	// List returns every document in the addressed collection.
	List(ctx context.Context, ownerID, collection string) ([]Doc, error)
	// ListOwners returns the distinct owner ids holding a subcollection of
	// the given name.
	ListOwners(ctx context.Context, collection string) ([]string, error)
	// BatchWrite applies up to MaxBatchOps operations atomically;
	// larger batches fail with ErrBatchTooLarge before any write.
	BatchWrite(ctx context.Context, ops []Op) error
}

// Encode and Decode fix the document wire encoding in one place.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func Decode(data []byte, target any) error {
	return msgpack.Unmarshal(data, target)
}

// DecodeAll decodes a listing into typed values, preserving order.
func DecodeAll[T any](docs []Doc) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc.Data, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
