package par

import (
	"context"
	"fmt"
)

// ResolveMembership reconstructs the recoverable membership of a
// soft-deleted album into a RestorePlan.
//
// Edges are walked in original position order; assets that are purged,
// missing their file, or (by default) sitting in the system trash are
// dropped, as are duplicate references (first occurrence wins). The plan
// keeps the album's original name even when a live album already uses it:
// the host application allows duplicates, so collision is a warning.
//
// When nothing survives filtering, the plan is returned together with an
// EmptyAlbumError so the caller can still choose to create the empty album.
func (s *Service) ResolveMembership(ctx context.Context, album AlbumRecord) (*RestorePlan, error) {
	lib, err := s.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer lib.Close()

	edges, err := lib.AlbumAssets(ctx, album.PK)
	if err != nil {
		return nil, fmt.Errorf("reading album membership: %w", err)
	}

	plan := &RestorePlan{
		AlbumUUID: album.UUID,
		Name:      album.Title,
	}

	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		asset, err := lib.Asset(ctx, e.AssetPK)
		if err != nil {
			return nil, fmt.Errorf("reading asset %d: %w", e.AssetPK, err)
		}

		switch asset.Marker {
		case MarkerPurged:
			plan.SkippedPurged++
			continue
		case MarkerTrashed:
			if !s.policy.IncludeTrashed {
				plan.SkippedTrashed++
				continue
			}
		}
		if !asset.HasFile {
			plan.SkippedMissing++
			continue
		}
		if _, dup := seen[asset.UUID]; dup {
			plan.SkippedDuplicate++
			continue
		}
		seen[asset.UUID] = struct{}{}
		plan.AssetUUIDs = append(plan.AssetUUIDs, asset.UUID)
	}

	albums, err := lib.Albums(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking for name collision: %w", err)
	}
	for _, other := range albums {
		if other.PK != album.PK && other.Kind == KindRegular && !other.Trashed && other.Title == album.Title {
			plan.NameCollision = true
			break
		}
	}

	s.logger.Info("membership resolved",
		"album", album.Title,
		"recoverable", len(plan.AssetUUIDs),
		"edges", len(edges),
		"skipped_purged", plan.SkippedPurged,
		"skipped_trashed", plan.SkippedTrashed,
		"skipped_missing", plan.SkippedMissing,
		"skipped_duplicate", plan.SkippedDuplicate)

	if len(plan.AssetUUIDs) == 0 {
		return plan, &EmptyAlbumError{Album: album.Title}
	}
	return plan, nil
}
