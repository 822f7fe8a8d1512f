package par

import "time"

// DeletionMarker is the tri-state deletion status of a library row.
type DeletionMarker int

const (
	// MarkerActive means the row is live in the library.
	MarkerActive DeletionMarker = iota
	// MarkerTrashed means the row is soft-deleted: marked for deletion
	// but still present in the database.
	MarkerTrashed
	// MarkerPurged means no row remains. Purged rows are synthesized by
	// the accessor when a reference points at a missing primary key.
	MarkerPurged
)

func (m DeletionMarker) String() string {
	switch m {
	case MarkerActive:
		return "active"
	case MarkerTrashed:
		return "trashed"
	case MarkerPurged:
		return "purged"
	default:
		return "unknown"
	}
}

// AlbumKind is the decoded ZKIND of an album row.
type AlbumKind int

const (
	KindRegular AlbumKind = iota
	KindFolder
	KindSmart
	KindShared
	KindLibraryRoot
	KindOther
)

func (k AlbumKind) String() string {
	switch k {
	case KindRegular:
		return "album"
	case KindFolder:
		return "folder"
	case KindSmart:
		return "smart album"
	case KindShared:
		return "shared album"
	case KindLibraryRoot:
		return "library root"
	default:
		return "other"
	}
}

// AlbumRecord is a read-only snapshot of one album row in the Photos
// library. The engine never mutates the source of these.
type AlbumRecord struct {
	PK         int64
	UUID       string
	Title      string
	ParentPK   int64 // 0 when the row has no parent reference
	Kind       AlbumKind
	Trashed    bool
	TrashedAt  time.Time // zero unless Trashed
	AssetCount int
}

// AssetRecord is a read-only snapshot of one asset row.
type AssetRecord struct {
	PK      int64
	UUID    string
	Marker  DeletionMarker
	HasFile bool
}

// MembershipEdge links an album to an asset at an original sort position.
type MembershipEdge struct {
	AssetPK  int64
	Position int64
}

// RestorePlan is the recoverable membership of one soft-deleted album,
// ready to be replayed through the automation port. Original ordering is
// not preserved; the host application applies its default order.
type RestorePlan struct {
	AlbumUUID  string
	Name       string
	AssetUUIDs []string

	// NameCollision is set when a live album already uses Name. The host
	// application allows duplicate names, so this is a warning, not an error.
	NameCollision bool

	// Counts of membership edges dropped during reconstruction.
	SkippedPurged    int
	SkippedTrashed   int
	SkippedMissing   int
	SkippedDuplicate int
}

// RunState is the lifecycle state of one restore run.
type RunState string

const (
	StateNotStarted     RunState = "not_started"
	StateAlbumCreated   RunState = "album_created"
	StateAddingMembers  RunState = "adding_members"
	StateCompleted      RunState = "completed"
	StateAbortedPartial RunState = "aborted_partial"
)

// RestoreRun is the persisted record of one restore attempt. The album
// handle makes a partial run resumable without creating a duplicate album.
type RestoreRun struct {
	ID          string
	AlbumUUID   string
	AlbumName   string
	AlbumHandle string
	TotalAssets int
	State       RunState
	StartedAt   time.Time
	FinishedAt  time.Time // zero while the run is in progress
}

// BatchResult records one add-assets call against the automation port.
type BatchResult struct {
	Index     int
	Size      int
	Confirmed int
	Err       error
}

// Outcome is the terminal result of executing (or resuming) a restore.
type Outcome struct {
	RunID       string
	AlbumHandle string
	State       RunState
	Confirmed   []string
	Unconfirmed []string
	Batches     []BatchResult
}

// Completed reports whether every planned asset was confirmed added.
func (o *Outcome) Completed() bool {
	return o.State == StateCompleted
}
