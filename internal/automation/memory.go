package automation

import (
	"context"
	"fmt"
	"sync"
)

// MemoryAlbum is one album held by MemoryAutomation.
type MemoryAlbum struct {
	Name       string
	AssetUUIDs []string
}

// MemoryAutomation is an in-process automation port. It backs tests and
// dry runs; failure hooks let tests script creation and batch failures.
type MemoryAutomation struct {
	mu     sync.Mutex
	nextID int
	albums map[string]*MemoryAlbum

	// PingErr, when set, is returned by Ping.
	PingErr error
	// CreateErr, when set, is returned by CreateAlbum.
	CreateErr error
	// AddErr, when set, is consulted with the 0-based add-assets call
	// index; a non-nil result fails that call.
	AddErr func(call int) error

	addCalls int
}

// NewMemoryAutomation creates an empty in-memory automation port.
func NewMemoryAutomation() *MemoryAutomation {
	return &MemoryAutomation{albums: make(map[string]*MemoryAlbum)}
}

func (m *MemoryAutomation) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

func (m *MemoryAutomation) CreateAlbum(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	handle := fmt.Sprintf("mem-album-%d", m.nextID)
	m.albums[handle] = &MemoryAlbum{Name: name}
	return handle, nil
}

func (m *MemoryAutomation) AddAssets(ctx context.Context, handle string, assetUUIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.addCalls
	m.addCalls++

	if m.AddErr != nil {
		if err := m.AddErr(call); err != nil {
			return 0, err
		}
	}

	album, ok := m.albums[handle]
	if !ok {
		return 0, fmt.Errorf("no album with id %s", handle)
	}
	album.AssetUUIDs = append(album.AssetUUIDs, assetUUIDs...)
	return len(assetUUIDs), nil
}

// Album returns the album behind handle, or nil.
func (m *MemoryAutomation) Album(handle string) *MemoryAlbum {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.albums[handle]
}

// AlbumCount returns the number of albums created.
func (m *MemoryAutomation) AlbumCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.albums)
}

// AddCalls returns the number of add-assets calls issued.
func (m *MemoryAutomation) AddCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addCalls
}
