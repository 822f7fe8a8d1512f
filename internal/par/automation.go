package par

import "context"

// Automation is the command channel through which the host photo
// application mutates its own state. It is a serialized resource: the
// host application processes one command at a time, so callers must not
// issue concurrent calls.
type Automation interface {
	// Ping checks that the host application is reachable.
	Ping(ctx context.Context) error

	// CreateAlbum creates a new top-level album and returns an opaque
	// handle for it. Duplicate names are allowed by the host application.
	CreateAlbum(ctx context.Context, name string) (string, error)

	// AddAssets adds the identified assets to the album behind handle and
	// returns the number confirmed added. A TransientError indicates the
	// call may succeed if retried.
	AddAssets(ctx context.Context, handle string, assetUUIDs []string) (int, error)
}
