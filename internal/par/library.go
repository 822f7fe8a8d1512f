package par

import "context"

// Library provides typed, read-only row access to one open Photos
// library database. Implementations must never write to the database:
// the host application may be using it concurrently.
type Library interface {
	// Generation identifies the detected schema generation.
	Generation() int

	// RootFolder returns the primary key of the top-level library container.
	RootFolder(ctx context.Context) (int64, error)

	// Albums returns all album and folder rows with their member counts,
	// ordered by deletion date. Purged albums have no row and never appear.
	Albums(ctx context.Context) ([]AlbumRecord, error)

	// AlbumAssets returns the membership edges of one album, ordered by
	// original position.
	AlbumAssets(ctx context.Context, albumPK int64) ([]MembershipEdge, error)

	// Asset returns the state of one asset. A missing row yields a record
	// with MarkerPurged, not an error.
	Asset(ctx context.Context, assetPK int64) (AssetRecord, error)

	Close() error
}

// LibraryOpener opens a Library for one query sequence. Handles are
// scoped: the service opens, queries, and closes rather than holding a
// long-lived connection against the live database.
type LibraryOpener interface {
	Open(ctx context.Context) (Library, error)
}
