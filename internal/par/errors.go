package par

import (
	"errors"
	"fmt"
)

// AccessError reports that the Photos library database could not be
// opened or read. It is fatal and never retried: the database is owned by
// the host application and a lock or permission problem cannot be fixed
// from here.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot access Photos library %q: %v", e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// UnsupportedSchemaError reports that the library database does not match
// any known schema generation. The engine fails closed rather than guess
// column names against a vendor-private layout.
type UnsupportedSchemaError struct {
	Detail string
}

func (e *UnsupportedSchemaError) Error() string {
	return "unsupported Photos schema: " + e.Detail
}

// EmptyAlbumError reports that after filtering, no recoverable assets
// remain for an album. Non-fatal: the caller may still create the empty
// album or abort.
type EmptyAlbumError struct {
	Album string
}

func (e *EmptyAlbumError) Error() string {
	return fmt.Sprintf("album %q has no recoverable assets", e.Album)
}

// CreationError reports that the target album could not be created. No
// assets are ever added when this occurs.
type CreationError struct {
	Album string
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("creating album %q: %v", e.Album, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// TransientError marks an automation port failure that is worth retrying,
// such as the host application being temporarily unresponsive.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient automation failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
