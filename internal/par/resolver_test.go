package par_test

import (
	"context"
	"errors"
	"testing"

	"par-go/internal/par"
)

func TestService_ResolveMembership(t *testing.T) {
	t.Run("purged and missing-file assets are dropped", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album,
			activeAsset(100),
			par.AssetRecord{PK: 101, UUID: "asset-uuid-101", Marker: par.MarkerTrashed, HasFile: true},
			par.AssetRecord{PK: 103, UUID: "asset-uuid-103", Marker: par.MarkerActive, HasFile: false},
		)
		// A purged asset: the edge exists but no asset row does.
		env.lib.Edges[album.PK] = append(env.lib.Edges[album.PK], par.MembershipEdge{AssetPK: 102, Position: 4})

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}

		want := []string{"asset-uuid-100"}
		if len(plan.AssetUUIDs) != len(want) || plan.AssetUUIDs[0] != want[0] {
			t.Errorf("plan assets = %v, want %v", plan.AssetUUIDs, want)
		}
		if plan.SkippedPurged != 1 {
			t.Errorf("SkippedPurged = %d, want 1", plan.SkippedPurged)
		}
		if plan.SkippedTrashed != 1 {
			t.Errorf("SkippedTrashed = %d, want 1", plan.SkippedTrashed)
		}
		if plan.SkippedMissing != 1 {
			t.Errorf("SkippedMissing = %d, want 1", plan.SkippedMissing)
		}
	})

	t.Run("trashed assets are admitted under the include-trashed policy", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{IncludeTrashed: true})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album,
			activeAsset(100),
			par.AssetRecord{PK: 101, UUID: "asset-uuid-101", Marker: par.MarkerTrashed, HasFile: true},
		)

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}
		if len(plan.AssetUUIDs) != 2 {
			t.Errorf("plan assets = %v, want 2 entries", plan.AssetUUIDs)
		}
		if plan.SkippedTrashed != 0 {
			t.Errorf("SkippedTrashed = %d, want 0", plan.SkippedTrashed)
		}
	})

	t.Run("duplicate references keep the first occurrence", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album, activeAsset(100), activeAsset(101))
		env.lib.Edges[album.PK] = append(env.lib.Edges[album.PK], par.MembershipEdge{AssetPK: 100, Position: 3})

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}
		want := []string{"asset-uuid-100", "asset-uuid-101"}
		if len(plan.AssetUUIDs) != 2 || plan.AssetUUIDs[0] != want[0] || plan.AssetUUIDs[1] != want[1] {
			t.Errorf("plan assets = %v, want %v", plan.AssetUUIDs, want)
		}
		if plan.SkippedDuplicate != 1 {
			t.Errorf("SkippedDuplicate = %d, want 1", plan.SkippedDuplicate)
		}
	})

	t.Run("plan never exceeds the edge count", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album, activeAsset(100), activeAsset(101), activeAsset(102))

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}
		if edges := len(env.lib.Edges[album.PK]); len(plan.AssetUUIDs) > edges {
			t.Errorf("plan has %d assets for %d edges", len(plan.AssetUUIDs), edges)
		}
	})

	t.Run("plan preserves original position order", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album, activeAsset(102), activeAsset(100), activeAsset(101))

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}
		want := []string{"asset-uuid-102", "asset-uuid-100", "asset-uuid-101"}
		for i, u := range want {
			if plan.AssetUUIDs[i] != u {
				t.Fatalf("plan assets = %v, want %v", plan.AssetUUIDs, want)
			}
		}
	})

	t.Run("nothing recoverable returns the plan with EmptyAlbumError", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album)
		env.lib.Edges[album.PK] = []par.MembershipEdge{{AssetPK: 900, Position: 1}}

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		var emptyErr *par.EmptyAlbumError
		if !errors.As(err, &emptyErr) {
			t.Fatalf("ResolveMembership() error = %v, want EmptyAlbumError", err)
		}
		if emptyErr.Album != "Vacation 2019" {
			t.Errorf("EmptyAlbumError.Album = %q", emptyErr.Album)
		}
		if plan == nil {
			t.Fatal("plan is nil; caller needs it to create the empty album")
		}
		if plan.SkippedPurged != 1 {
			t.Errorf("SkippedPurged = %d, want 1", plan.SkippedPurged)
		}
	})

	t.Run("live album with the same name flags a collision", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album, activeAsset(100))
		env.addAlbum(par.AlbumRecord{PK: 20, UUID: "live", Title: "Vacation 2019", ParentPK: 1, Kind: par.KindRegular})

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}
		if !plan.NameCollision {
			t.Error("NameCollision = false, want true")
		}
	})

	t.Run("collision against trashed or smart namesakes is ignored", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album, activeAsset(100))
		env.addAlbum(trashedAlbum(20, "Vacation 2019"))
		env.addAlbum(par.AlbumRecord{PK: 21, UUID: "smart", Title: "Vacation 2019", ParentPK: 1, Kind: par.KindSmart})

		plan, err := env.svc.ResolveMembership(context.Background(), album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}
		if plan.NameCollision {
			t.Error("NameCollision = true, want false")
		}
	})
}
