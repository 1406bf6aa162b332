// Package store defines the key-value port the client keeps its state in.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// Keys shared with the web client's local storage layout.
const (
	KeyCart             = "cart"
	KeyTableID          = "tableId"
	KeyTableNumber      = "tableNumber"
	KeyCustomerToken    = "customerToken"
	KeyCustomer         = "customer"
	KeyCustomerID       = "customerId"
	KeyCustomerUsername = "customerUsername"
	KeyRefreshToken     = "customerRefreshToken"
	KeyFCMToken         = "fcmToken"
)

// Store is implemented by the memory, Redis and SQL backends.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

func GetJSON(ctx context.Context, s Store, key string, dest interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Lookup returns the value and whether it exists, folding ErrNotFound.
func Lookup(ctx context.Context, s Store, key string) (string, bool, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
