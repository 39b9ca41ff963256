package docstore

import (
	"context"
	"sort"
	"sync"
)

type memKey struct {
	ownerID    string
	collection string
	id         string
}

// Memory is an in-process Store with the same semantics as the Redis
// implementation. It backs service tests and the migration dry-run preview.
type Memory struct {
	mu   sync.RWMutex
	docs map[memKey][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: map[memKey][]byte{}}
}

func (s *Memory) Get(ctx context.Context, ownerID, collection, id string) ([]byte, error) {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[memKey{ownerID, collection, id}]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *Memory) Put(ctx context.Context, ownerID, collection, id string, data []byte) error {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[memKey{ownerID, collection, id}] = append([]byte(nil), data...)
	return nil
}

func (s *Memory) Create(ctx context.Context, ownerID, collection, id string, data []byte) (bool, error) {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey{ownerID, collection, id}
	if _, ok := s.docs[key]; ok {
		return false, nil
	}
	s.docs[key] = append([]byte(nil), data...)
	return true, nil
}

func (s *Memory) Delete(ctx context.Context, ownerID, collection, id string) error {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, memKey{ownerID, collection, id})
	return nil
}

func (s *Memory) List(ctx context.Context, ownerID, collection string) ([]Doc, error) {
	if err := validateKeyParts(ownerID, collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []Doc
	for key, data := range s.docs {
		if key.collection != collection || key.ownerID != ownerID {
			continue
		}
		docs = append(docs, Doc{
			OwnerID:    key.ownerID,
			Collection: key.collection,
			ID:         key.id,
			Data:       append([]byte(nil), data...),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *Memory) ListOwners(ctx context.Context, collection string) ([]string, error) {
	if err := validateKeyParts(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	var owners []string
	for key := range s.docs {
		if key.collection != collection || key.ownerID == "" || seen[key.ownerID] {
			continue
		}
		seen[key.ownerID] = true
		owners = append(owners, key.ownerID)
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *Memory) BatchWrite(ctx context.Context, ops []Op) error {
	if len(ops) > MaxBatchOps {
		return ErrBatchTooLarge
	}
	for _, op := range ops {
		if err := validateKeyParts(op.OwnerID, op.Collection, op.ID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		key := memKey{op.OwnerID, op.Collection, op.ID}
		switch op.Kind {
		case OpPut:
			s.docs[key] = append([]byte(nil), op.Data...)
		case OpDelete:
			delete(s.docs, key)
		}
	}
	return nil
}
