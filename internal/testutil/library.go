package testutil

import (
	"context"

	"par-go/internal/par"
)

// FakeLibrary is an in-memory par.Library for engine tests.
type FakeLibrary struct {
	Root   int64
	Rows   []par.AlbumRecord
	Edges  map[int64][]par.MembershipEdge
	Assets map[int64]par.AssetRecord
	Gen    int

	Closed bool
}

// NewFakeLibrary creates an empty library with root PK 1.
func NewFakeLibrary() *FakeLibrary {
	return &FakeLibrary{
		Root:   1,
		Edges:  make(map[int64][]par.MembershipEdge),
		Assets: make(map[int64]par.AssetRecord),
		Gen:    28,
	}
}

func (l *FakeLibrary) Generation() int { return l.Gen }

func (l *FakeLibrary) RootFolder(context.Context) (int64, error) { return l.Root, nil }

func (l *FakeLibrary) Albums(context.Context) ([]par.AlbumRecord, error) {
	return append([]par.AlbumRecord(nil), l.Rows...), nil
}

func (l *FakeLibrary) AlbumAssets(_ context.Context, albumPK int64) ([]par.MembershipEdge, error) {
	return append([]par.MembershipEdge(nil), l.Edges[albumPK]...), nil
}

// Asset mirrors the accessor contract: a missing row is a purged record,
// not an error.
func (l *FakeLibrary) Asset(_ context.Context, assetPK int64) (par.AssetRecord, error) {
	a, ok := l.Assets[assetPK]
	if !ok {
		return par.AssetRecord{PK: assetPK, Marker: par.MarkerPurged}, nil
	}
	return a, nil
}

func (l *FakeLibrary) Close() error {
	l.Closed = true
	return nil
}

// FakeOpener hands out a fixed FakeLibrary, or fails with Err.
type FakeOpener struct {
	Lib *FakeLibrary
	Err error
}

func (o FakeOpener) Open(context.Context) (par.Library, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Lib, nil
}
