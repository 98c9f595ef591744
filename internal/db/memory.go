package db

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore implements Store in process memory. Documents go through a BSON
// round trip on every write and read, so values decode exactly as they would
// from MongoDB. It backs tests and the "memory" store backend.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]bson.M
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]bson.M)}
}

func toDocument(v interface{}) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func normalize(v interface{}) (interface{}, error) {
	doc, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return doc["v"], nil
}

func decode(doc bson.M, out interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}

func matches(doc bson.M, filter bson.M) (bool, error) {
	for field, want := range filter {
		got := doc[field]
		if cond, ok := want.(bson.M); ok {
			list, ok := cond["$in"]
			if !ok || len(cond) != 1 {
				return false, fmt.Errorf("unsupported filter on %s: %v", field, cond)
			}
			values, err := normalize(list)
			if err != nil {
				return false, err
			}
			arr, ok := values.(primitive.A)
			if !ok {
				return false, fmt.Errorf("$in on %s needs an array", field)
			}
			found := false
			for _, v := range arr {
				if reflect.DeepEqual(got, v) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
			continue
		}
		nw, err := normalize(want)
		if err != nil {
			return false, err
		}
		if !reflect.DeepEqual(got, nw) {
			return false, nil
		}
	}
	return true, nil
}

// first returns the first matching document; callers hold the lock.
func (s *MemoryStore) first(collection string, filter bson.M) (bson.M, error) {
	for _, doc := range s.docs[collection] {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			return doc, nil
		}
	}
	return nil, nil
}

// FindOne decodes the first matching document into out.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.first(collection, filter)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	return decode(doc, out)
}

// FindMany decodes all matching documents, in insertion order, into out,
// which must point to a slice.
func (s *MemoryStore) FindMany(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("FindMany needs a pointer to a slice, got %T", out)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sliceType := rv.Elem().Type()
	result := reflect.MakeSlice(sliceType, 0, len(s.docs[collection]))
	for _, doc := range s.docs[collection] {
		ok, err := matches(doc, filter)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		elem := reflect.New(sliceType.Elem())
		if err := decode(doc, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	rv.Elem().Set(result)
	return nil
}

// InsertOne stores doc, assigning an ObjectID when it has none.
func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc interface{}) (string, error) {
	d, err := toDocument(doc)
	if err != nil {
		return "", err
	}
	if id, ok := d["_id"]; !ok || id == nil {
		d["_id"] = primitive.NewObjectID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs[collection] {
		if reflect.DeepEqual(existing["_id"], d["_id"]) {
			return "", fmt.Errorf("%w: _id", ErrDuplicate)
		}
		for _, field := range uniqueFields[collection] {
			v, ok := d[field]
			if ok && v != nil && reflect.DeepEqual(existing[field], v) {
				return "", fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	s.docs[collection] = append(s.docs[collection], d)

	switch id := d["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return fmt.Sprint(id), nil
	}
}

// UpdateOne sets fields on the first matching document.
func (s *MemoryStore) UpdateOne(ctx context.Context, collection string, filter bson.M, set bson.M) (int64, error) {
	values, err := toDocument(set)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.first(collection, filter)
	if err != nil || doc == nil {
		return 0, err
	}
	for k, v := range values {
		doc[k] = v
	}
	return 1, nil
}

// PushToArray appends value to an array field of the first matching document.
func (s *MemoryStore) PushToArray(ctx context.Context, collection string, filter bson.M, field string, value interface{}) (int64, error) {
	v, err := normalize(value)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.first(collection, filter)
	if err != nil || doc == nil {
		return 0, err
	}
	var arr primitive.A
	switch cur := doc[field].(type) {
	case nil:
	case primitive.A:
		arr = cur
	default:
		return 0, fmt.Errorf("field %s must be an array but is %T", field, cur)
	}
	doc[field] = append(arr, v)
	return 1, nil
}

// Count returns the number of matching documents.
func (s *MemoryStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.docs[collection] {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
