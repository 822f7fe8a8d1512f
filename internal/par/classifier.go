package par

// Classification is the recovery eligibility of an album row.
type Classification int

const (
	// ClassActive: a live, eligible album. Not recoverable (nothing to recover).
	ClassActive Classification = iota
	// ClassSoftDeleted: marked deleted but still present. Recoverable.
	ClassSoftDeleted
	// ClassPurged: permanently removed. Purged albums have no row and are
	// excluded by the accessor's query before classification; the value
	// exists so the taxonomy is complete.
	ClassPurged
	// ClassIneligible: wrong kind (smart, shared, folder) or nested in a
	// folder. Never surfaced for recovery regardless of deletion state.
	ClassIneligible
)

func (c Classification) String() string {
	switch c {
	case ClassActive:
		return "active"
	case ClassSoftDeleted:
		return "soft-deleted"
	case ClassPurged:
		return "purged"
	case ClassIneligible:
		return "ineligible"
	default:
		return "unknown"
	}
}

// Classify determines the recovery eligibility of one album row snapshot.
// rootPK is the primary key of the top-level library container; only
// regular albums parented directly to it are eligible. The predicate is
// pure: the same snapshot always classifies the same way.
func Classify(a AlbumRecord, rootPK int64) Classification {
	if a.Kind != KindRegular {
		return ClassIneligible
	}
	if a.ParentPK == 0 || a.ParentPK != rootPK {
		return ClassIneligible
	}
	if !a.Trashed {
		return ClassActive
	}
	return ClassSoftDeleted
}
