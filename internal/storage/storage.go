package storage

import "context"

// Keys of the independently stored collections.
const (
	KeyOrders          = "orders"
	KeyCustomMenuItems = "customMenuItems"
	KeyUsers           = "users"
	KeyAdminUsers      = "adminUsers"
	KeyAppConfig       = "appConfig"
	KeyCurrentUser     = "currentUser"
	KeyCurrentAdmin    = "currentAdmin"
)

// Store is a durable key-value store. Values are opaque; the store does no
// validation and offers no transactions spanning several keys.
type Store interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove is a no-op for absent keys.
	Remove(ctx context.Context, key string) error
}
