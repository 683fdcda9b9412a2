package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
// Values are strings or byte slices; structured values are encoded by the caller.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	Close() error
}

// toBytes normalises a cached value.
func toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("cache: unsupported value type %T", value)
	}
}

// assign copies raw into dest, which must be *string or *[]byte.
func assign(raw []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(raw)
	case *[]byte:
		*d = append((*d)[:0], raw...)
	default:
		return fmt.Errorf("cache: unsupported destination type %T", dest)
	}
	return nil
}
