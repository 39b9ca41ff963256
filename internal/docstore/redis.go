package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis keeps documents as msgpack blobs under pattern-scannable keys:
//
//	doc:{collection}:{id}                      flat layout
//	doc:{collection}:owner:{ownerID}:{id}      owner-partitioned layout
//
// Batch writes ride a MULTI/EXEC pipeline.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) (*Redis, error) {
	return &Redis{client}, nil
}

func dbKeyDoc(ownerID, collection, id string) string {
	if ownerID == "" {
		return fmt.Sprintf("doc:%s:%s", collection, id)
	}
	return fmt.Sprintf("doc:%s:owner:%s:%s", collection, ownerID, id)
}

func dbKeyDocPattern(ownerID, collection string) string {
	if ownerID == "" {
		return fmt.Sprintf("doc:%s:*", collection)
	}
	return fmt.Sprintf("doc:%s:owner:%s:*", collection, ownerID)
}

func (s *Redis) Get(ctx context.Context, ownerID, collection, id string) ([]byte, error) {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return nil, err
	}
	b, err := s.client.Get(ctx, dbKeyDoc(ownerID, collection, id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Redis) Put(ctx context.Context, ownerID, collection, id string, data []byte) error {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return err
	}
	return s.client.Set(ctx, dbKeyDoc(ownerID, collection, id), data, 0).Err()
}

func (s *Redis) Create(ctx context.Context, ownerID, collection, id string, data []byte) (bool, error) {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, dbKeyDoc(ownerID, collection, id), data, 0).Result()
}

func (s *Redis) Delete(ctx context.Context, ownerID, collection, id string) error {
	if err := validateKeyParts(ownerID, collection, id); err != nil {
		return err
	}
	return s.client.Del(ctx, dbKeyDoc(ownerID, collection, id)).Err()
}

func (s *Redis) List(ctx context.Context, ownerID, collection string) ([]Doc, error) {
	if err := validateKeyParts(ownerID, collection); err != nil {
		return nil, err
	}
	var docs []Doc
	iter := s.client.Scan(ctx, 0, dbKeyDocPattern(ownerID, collection), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		owner, id, ok := parseKey(key, collection)
		if !ok || owner != ownerID {
			// the flat pattern also matches partitioned keys
			continue
		}
		b, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Doc{OwnerID: owner, Collection: collection, ID: id, Data: b})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Redis) ListOwners(ctx context.Context, collection string) ([]string, error) {
	if err := validateKeyParts(collection); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var owners []string
	pattern := fmt.Sprintf("doc:%s:owner:*", collection)
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		owner, _, ok := parseKey(iter.Val(), collection)
		if !ok || owner == "" || seen[owner] {
			continue
		}
		seen[owner] = true
		owners = append(owners, owner)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return owners, nil
}

func (s *Redis) BatchWrite(ctx context.Context, ops []Op) error {
	if len(ops) > MaxBatchOps {
		return ErrBatchTooLarge
	}
	for _, op := range ops {
		if err := validateKeyParts(op.OwnerID, op.Collection, op.ID); err != nil {
			return err
		}
	}
	pipe := s.client.TxPipeline()
	for _, op := range ops {
		key := dbKeyDoc(op.OwnerID, op.Collection, op.ID)
		switch op.Kind {
		case OpPut:
			pipe.Set(ctx, key, op.Data, 0)
		case OpDelete:
			pipe.Del(ctx, key)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// parseKey recovers (owner, id) from a scanned key. The flat pattern also
// matches partitioned keys, so List("" , col) must skip them explicitly.
func parseKey(key, collection string) (owner, id string, ok bool) {
	rest, found := strings.CutPrefix(key, "doc:"+collection+":")
	if !found {
		return "", "", false
	}
	if sub, partitioned := strings.CutPrefix(rest, "owner:"); partitioned {
		parts := strings.SplitN(sub, ":", 2)
		if len(parts) != 2 {
			return "", "", false
		}
		return parts[0], parts[1], true
	}
	if strings.Contains(rest, ":") {
		return "", "", false
	}
	return "", rest, true
}
