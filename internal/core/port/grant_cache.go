package port

import "context"

// GrantCache tracks which (user, pedestal) pairs currently hold a verified,
// unlocked session. Backends decide grant lifetime: the in-memory cache keeps
// grants for the process lifetime, the Redis cache supports a TTL and
// cross-instance sharing.
type GrantCache interface {
	HasAccess(ctx context.Context, userID, pedestalID string) (bool, error)
	Grant(ctx context.Context, userID, pedestalID string) error
	Revoke(ctx context.Context, userID, pedestalID string) error
}
