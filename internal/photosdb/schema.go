package photosdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"par-go/internal/par"
)

// schemaInfo holds the generation-specific names resolved by the probe.
// The album-to-asset join table and its columns carry a Core Data entity
// number that differs between Photos releases (e.g. Z_26ASSETS on older
// libraries, Z_28ASSETS on newer ones).
type schemaInfo struct {
	Generation  int    // entity number of the join table
	JoinTable   string // e.g. Z_28ASSETS
	AlbumColumn string // e.g. Z_28ALBUMS
	AssetColumn string // e.g. Z_3ASSETS
	SortColumn  string // e.g. Z_FOK_3ASSETS
}

var (
	joinTableRe = regexp.MustCompile(`^Z_(\d+)ASSETS$`)
	albumColRe  = regexp.MustCompile(`^Z_\d+ALBUMS$`)
	assetColRe  = regexp.MustCompile(`^Z_\d+ASSETS$`)
	sortColRe   = regexp.MustCompile(`^Z_FOK_\d+ASSETS$`)
)

// probeSchema verifies the database is a recognizable Photos library and
// resolves the generation-specific join table and columns. Anything it
// cannot recognize is an UnsupportedSchemaError: failing closed beats
// guessing column names against someone else's database.
func probeSchema(ctx context.Context, db *sql.DB) (schemaInfo, error) {
	for _, table := range []string{"ZGENERICALBUM", "ZASSET"} {
		ok, err := tableExists(ctx, db, table)
		if err != nil {
			return schemaInfo{}, &par.AccessError{Err: fmt.Errorf("reading schema catalog: %w", err)}
		}
		if !ok {
			return schemaInfo{}, &par.UnsupportedSchemaError{
				Detail: fmt.Sprintf("table %s not found (pre-Catalina library?)", table),
			}
		}
	}

	info, err := findJoinTable(ctx, db)
	if err != nil {
		return schemaInfo{}, err
	}

	if err := resolveJoinColumns(ctx, db, &info); err != nil {
		return schemaInfo{}, err
	}
	return info, nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// findJoinTable locates the album-to-asset mapping table. The catalog
// holds look-alikes (e.g. Z_3SUGGESTIONSBEINGREPRESENTATIVEASSETS), so
// candidates are filtered against the exact Z_<n>ASSETS shape.
func findJoinTable(ctx context.Context, db *sql.DB) (schemaInfo, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'Z_%ASSETS'")
	if err != nil {
		return schemaInfo{}, &par.AccessError{Err: fmt.Errorf("reading schema catalog: %w", err)}
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return schemaInfo{}, &par.AccessError{Err: fmt.Errorf("scanning schema catalog: %w", err)}
		}
		m := joinTableRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		gen, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return schemaInfo{Generation: gen, JoinTable: name}, nil
	}
	if err := rows.Err(); err != nil {
		return schemaInfo{}, &par.AccessError{Err: fmt.Errorf("reading schema catalog: %w", err)}
	}
	return schemaInfo{}, &par.UnsupportedSchemaError{Detail: "album membership table not found"}
}

// resolveJoinColumns inspects the join table for the album key, asset
// key, and sort order columns.
func resolveJoinColumns(ctx context.Context, db *sql.DB, info *schemaInfo) error {
	// info.JoinTable matched a strict pattern above, so interpolation is safe;
	// PRAGMA does not accept bound parameters.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", info.JoinTable))
	if err != nil {
		return &par.AccessError{Err: fmt.Errorf("inspecting %s: %w", info.JoinTable, err)}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return &par.AccessError{Err: fmt.Errorf("inspecting %s: %w", info.JoinTable, err)}
		}
		switch {
		case albumColRe.MatchString(name):
			info.AlbumColumn = name
		case sortColRe.MatchString(name):
			info.SortColumn = name
		case assetColRe.MatchString(name):
			info.AssetColumn = name
		}
	}
	if err := rows.Err(); err != nil {
		return &par.AccessError{Err: fmt.Errorf("inspecting %s: %w", info.JoinTable, err)}
	}

	if info.AlbumColumn == "" || info.AssetColumn == "" || info.SortColumn == "" {
		return &par.UnsupportedSchemaError{
			Detail: fmt.Sprintf("cannot resolve join columns of %s (album=%q asset=%q sort=%q)",
				info.JoinTable, info.AlbumColumn, info.AssetColumn, info.SortColumn),
		}
	}
	return nil
}
