package photosdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"par-go/internal/par"
)

// ZGENERICALBUM kind values observed across the supported schema
// generations. Only kindAlbum rows are recoverable; the rest are decoded
// so classification can name what it rejects.
const (
	kindAlbum       = 2
	kindSharedAlbum = 1505
	kindSmartAlbum  = 1507
	kindRootFolder  = 3999
	kindFolder      = 4000
)

// Core Data stores timestamps as seconds since 2001-01-01 UTC.
const appleEpochOffset = 978307200

// Library is a read-only handle on one Photos database. It implements
// par.Library. Queries against the generation-specific join table are
// built from the names resolved by the schema probe.
type Library struct {
	db     *sql.DB
	schema schemaInfo
	path   string
}

// NewLibraryFromDB probes the schema of an already-open connection and
// wraps it. Used by Opener and by tests that build fixture databases.
func NewLibraryFromDB(ctx context.Context, db *sql.DB) (*Library, error) {
	schema, err := probeSchema(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Library{db: db, schema: schema}, nil
}

func (l *Library) Generation() int { return l.schema.Generation }

func (l *Library) Close() error { return l.db.Close() }

// RootFolder returns the primary key of the top-level library container.
func (l *Library) RootFolder(ctx context.Context) (int64, error) {
	var pk int64
	err := l.db.QueryRowContext(ctx,
		"SELECT Z_PK FROM ZGENERICALBUM WHERE ZKIND = ? LIMIT 1", kindRootFolder).Scan(&pk)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &par.UnsupportedSchemaError{Detail: "library root folder not found"}
		}
		return 0, fmt.Errorf("finding library root: %w", err)
	}
	return pk, nil
}

// Albums returns all album and folder rows with their member counts,
// ordered by deletion date. Purged albums have no row, so they never
// appear here — that is what makes the soft-deleted set enumerable.
func (l *Library) Albums(ctx context.Context) ([]par.AlbumRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			g.Z_PK,
			COALESCE(g.ZUUID, ''),
			COALESCE(g.ZTITLE, ''),
			COALESCE(g.ZPARENTFOLDER, 0),
			g.ZKIND,
			COALESCE(g.ZTRASHEDSTATE, 0),
			g.ZTRASHEDDATE,
			COUNT(j.%s)
		FROM ZGENERICALBUM g
		LEFT JOIN %s j ON j.%s = g.Z_PK
		WHERE g.ZKIND != ?
		GROUP BY g.Z_PK
		ORDER BY g.ZTRASHEDDATE`,
		l.schema.AssetColumn, l.schema.JoinTable, l.schema.AlbumColumn)

	rows, err := l.db.QueryContext(ctx, query, kindRootFolder)
	if err != nil {
		return nil, fmt.Errorf("querying albums: %w", err)
	}
	defer rows.Close()

	var albums []par.AlbumRecord
	for rows.Next() {
		var (
			a           par.AlbumRecord
			rawKind     int
			trashed     int
			trashedDate sql.NullFloat64
		)
		if err := rows.Scan(&a.PK, &a.UUID, &a.Title, &a.ParentPK, &rawKind, &trashed, &trashedDate, &a.AssetCount); err != nil {
			return nil, fmt.Errorf("scanning album row: %w", err)
		}
		a.Kind = decodeKind(rawKind)
		a.Trashed = trashed != 0
		if trashedDate.Valid {
			a.TrashedAt = appleTime(trashedDate.Float64)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading album rows: %w", err)
	}
	return albums, nil
}

// AlbumAssets returns the membership edges of one album in original
// position order.
func (l *Library) AlbumAssets(ctx context.Context, albumPK int64) ([]par.MembershipEdge, error) {
	query := fmt.Sprintf(
		"SELECT j.%s, COALESCE(j.%s, 0) FROM %s j WHERE j.%s = ? ORDER BY j.%s",
		l.schema.AssetColumn, l.schema.SortColumn,
		l.schema.JoinTable, l.schema.AlbumColumn, l.schema.SortColumn)

	rows, err := l.db.QueryContext(ctx, query, albumPK)
	if err != nil {
		return nil, fmt.Errorf("querying album membership: %w", err)
	}
	defer rows.Close()

	var edges []par.MembershipEdge
	for rows.Next() {
		var e par.MembershipEdge
		if err := rows.Scan(&e.AssetPK, &e.Position); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading membership rows: %w", err)
	}
	return edges, nil
}

// Asset returns the state of one asset. A missing row means the asset
// was permanently purged; that is reported as a record with
// MarkerPurged, not as an error.
func (l *Library) Asset(ctx context.Context, assetPK int64) (par.AssetRecord, error) {
	var (
		uuid     string
		trashed  int
		complete int
	)
	err := l.db.QueryRowContext(ctx,
		"SELECT COALESCE(ZUUID, ''), COALESCE(ZTRASHEDSTATE, 0), COALESCE(ZCOMPLETE, 1) FROM ZASSET WHERE Z_PK = ?",
		assetPK).Scan(&uuid, &trashed, &complete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return par.AssetRecord{PK: assetPK, Marker: par.MarkerPurged}, nil
		}
		return par.AssetRecord{}, fmt.Errorf("querying asset %d: %w", assetPK, err)
	}

	marker := par.MarkerActive
	if trashed != 0 {
		marker = par.MarkerTrashed
	}
	return par.AssetRecord{
		PK:      assetPK,
		UUID:    uuid,
		Marker:  marker,
		HasFile: complete != 0,
	}, nil
}

func decodeKind(raw int) par.AlbumKind {
	switch raw {
	case kindAlbum:
		return par.KindRegular
	case kindFolder:
		return par.KindFolder
	case kindRootFolder:
		return par.KindLibraryRoot
	case kindSharedAlbum:
		return par.KindShared
	case kindSmartAlbum:
		return par.KindSmart
	default:
		return par.KindOther
	}
}

// appleTime converts a Core Data timestamp to a time.Time.
func appleTime(seconds float64) time.Time {
	return time.Unix(int64(seconds)+appleEpochOffset, 0).UTC()
}
