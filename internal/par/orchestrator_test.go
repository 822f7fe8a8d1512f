package par_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"par-go/internal/par"
)

func makeUUIDs(n int) []string {
	uuids := make([]string, n)
	for i := range uuids {
		uuids[i] = fmt.Sprintf("asset-%04d", i)
	}
	return uuids
}

func TestService_Restore(t *testing.T) {
	t.Run("resolved membership lands in a new album", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		album := trashedAlbum(10, "Vacation 2019")
		env.addAlbum(album, activeAsset(100), activeAsset(101), activeAsset(102))
		// Fourth member was purged after the album was deleted.
		env.lib.Edges[album.PK] = append(env.lib.Edges[album.PK], par.MembershipEdge{AssetPK: 103, Position: 4})

		ctx := context.Background()
		plan, err := env.svc.ResolveMembership(ctx, album)
		if err != nil {
			t.Fatalf("ResolveMembership() error = %v", err)
		}

		out, err := env.svc.Restore(ctx, plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if !out.Completed() {
			t.Fatalf("outcome state = %s, want completed", out.State)
		}
		if len(out.Confirmed) != 3 {
			t.Errorf("confirmed %d assets, want 3", len(out.Confirmed))
		}

		created := env.auto.Album(out.AlbumHandle)
		if created == nil {
			t.Fatalf("no album behind handle %s", out.AlbumHandle)
		}
		if created.Name != "Vacation 2019" {
			t.Errorf("album name = %q", created.Name)
		}
		if len(created.AssetUUIDs) != 3 {
			t.Errorf("album holds %d assets, want 3", len(created.AssetUUIDs))
		}

		run, err := env.jnl.FindRun(ctx, out.RunID)
		if err != nil {
			t.Fatalf("FindRun() error = %v", err)
		}
		if run == nil || run.State != par.StateCompleted {
			t.Errorf("journal run = %+v, want completed", run)
		}
	})

	t.Run("assets are added in ceil(K/B) batches", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{BatchSize: 200})
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Big", AssetUUIDs: makeUUIDs(2500)}

		out, err := env.svc.Restore(context.Background(), plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if !out.Completed() {
			t.Fatalf("outcome state = %s, want completed", out.State)
		}
		if got := env.auto.AddCalls(); got != 13 {
			t.Errorf("add calls = %d, want 13", got)
		}
		if len(out.Confirmed) != 2500 {
			t.Errorf("confirmed %d assets, want 2500", len(out.Confirmed))
		}
		if got := len(env.auto.Album(out.AlbumHandle).AssetUUIDs); got != 2500 {
			t.Errorf("album holds %d assets, want 2500", got)
		}
	})

	t.Run("creation failure adds nothing", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		env.auto.CreateErr = errors.New("Photos got an error: AppleEvent handler failed")
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Vacation 2019", AssetUUIDs: makeUUIDs(5)}

		out, err := env.svc.Restore(context.Background(), plan, nil)
		var creationErr *par.CreationError
		if !errors.As(err, &creationErr) {
			t.Fatalf("Restore() error = %v, want CreationError", err)
		}
		if env.auto.AddCalls() != 0 {
			t.Errorf("add calls = %d, want 0", env.auto.AddCalls())
		}
		if out.State != par.StateAbortedPartial {
			t.Errorf("outcome state = %s, want aborted_partial", out.State)
		}
		if len(out.Unconfirmed) != 5 {
			t.Errorf("unconfirmed %d assets, want all 5", len(out.Unconfirmed))
		}
	})

	t.Run("unreachable host fails before creating anything", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		env.auto.PingErr = errors.New("connection refused")
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Vacation 2019", AssetUUIDs: makeUUIDs(3)}

		_, err := env.svc.Restore(context.Background(), plan, nil)
		var creationErr *par.CreationError
		if !errors.As(err, &creationErr) {
			t.Fatalf("Restore() error = %v, want CreationError", err)
		}
		if env.auto.AlbumCount() != 0 {
			t.Errorf("albums created = %d, want 0", env.auto.AlbumCount())
		}
	})

	t.Run("a failing batch does not stop the run", func(t *testing.T) {
		// 2500 assets in batches of 200; the seventh batch exhausts its
		// retries, the other twelve succeed.
		env := newTestEnv(t, par.Policy{BatchSize: 200, MaxRetries: 2, RetryDelay: time.Second})
		env.auto.AddErr = func(call int) error {
			if call >= 6 && call <= 8 {
				return &par.TransientError{Err: errors.New("Photos timed out")}
			}
			return nil
		}
		uuids := makeUUIDs(2500)
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Big", AssetUUIDs: uuids}

		ctx := context.Background()
		out, err := env.svc.Restore(ctx, plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if out.State != par.StateAbortedPartial {
			t.Fatalf("outcome state = %s, want aborted_partial", out.State)
		}
		// 12 successful batches plus 3 attempts at the failing one.
		if got := env.auto.AddCalls(); got != 15 {
			t.Errorf("add calls = %d, want 15", got)
		}
		if got := env.clock.Slept(); got != 2*time.Second {
			t.Errorf("slept %v between retries, want 2s", got)
		}
		if len(out.Confirmed) != 2300 {
			t.Errorf("confirmed %d assets, want 2300", len(out.Confirmed))
		}
		if len(out.Unconfirmed) != 200 {
			t.Fatalf("unconfirmed %d assets, want 200", len(out.Unconfirmed))
		}
		// Exactly the seventh batch is missing.
		for i, u := range uuids[1200:1400] {
			if out.Unconfirmed[i] != u {
				t.Fatalf("unconfirmed[%d] = %s, want %s", i, out.Unconfirmed[i], u)
			}
		}

		pending, err := env.jnl.UnconfirmedAssets(ctx, out.RunID)
		if err != nil {
			t.Fatalf("UnconfirmedAssets() error = %v", err)
		}
		if len(pending) != 200 {
			t.Errorf("journal holds %d pending assets, want 200", len(pending))
		}
	})

	t.Run("transient failures are retried in place", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{BatchSize: 10, MaxRetries: 2, RetryDelay: time.Second})
		env.auto.AddErr = func(call int) error {
			if call == 0 {
				return &par.TransientError{Err: errors.New("Photos timed out")}
			}
			return nil
		}
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Flaky", AssetUUIDs: makeUUIDs(10)}

		out, err := env.svc.Restore(context.Background(), plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if !out.Completed() {
			t.Errorf("outcome state = %s, want completed", out.State)
		}
		if got := env.auto.AddCalls(); got != 2 {
			t.Errorf("add calls = %d, want 2", got)
		}
		if got := env.clock.Slept(); got != time.Second {
			t.Errorf("slept %v, want 1s", got)
		}
	})

	t.Run("permanent failures are not retried", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{BatchSize: 10, MaxRetries: 3, RetryDelay: time.Second})
		env.auto.AddErr = func(call int) error {
			if call == 0 {
				return errors.New("no album with that id")
			}
			return nil
		}
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Broken", AssetUUIDs: makeUUIDs(20)}

		out, err := env.svc.Restore(context.Background(), plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		// One failed attempt for the first batch, one success for the second.
		if got := env.auto.AddCalls(); got != 2 {
			t.Errorf("add calls = %d, want 2", got)
		}
		if got := env.clock.Slept(); got != 0 {
			t.Errorf("slept %v for a permanent failure, want 0", got)
		}
		if len(out.Unconfirmed) != 10 {
			t.Errorf("unconfirmed %d assets, want 10", len(out.Unconfirmed))
		}
	})

	t.Run("cancellation stops between batches", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{BatchSize: 10})
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Interrupted", AssetUUIDs: makeUUIDs(30)}

		ctx, cancel := context.WithCancel(context.Background())
		out, err := env.svc.Restore(ctx, plan, func(batch, total int) {
			if batch == 1 {
				cancel()
			}
		})
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if out.State != par.StateAbortedPartial {
			t.Fatalf("outcome state = %s, want aborted_partial", out.State)
		}
		if got := env.auto.AddCalls(); got != 1 {
			t.Errorf("add calls = %d, want 1", got)
		}
		if len(out.Confirmed) != 10 || len(out.Unconfirmed) != 20 {
			t.Errorf("confirmed/unconfirmed = %d/%d, want 10/20", len(out.Confirmed), len(out.Unconfirmed))
		}
	})

	t.Run("empty plan still creates the album", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Empty"}

		out, err := env.svc.Restore(context.Background(), plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if !out.Completed() {
			t.Errorf("outcome state = %s, want completed", out.State)
		}
		if env.auto.AlbumCount() != 1 {
			t.Errorf("albums created = %d, want 1", env.auto.AlbumCount())
		}
		if env.auto.AddCalls() != 0 {
			t.Errorf("add calls = %d, want 0", env.auto.AddCalls())
		}
	})
}

func TestService_Resume(t *testing.T) {
	t.Run("only unconfirmed assets are replayed", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{BatchSize: 200, MaxRetries: 0})
		env.auto.AddErr = func(call int) error {
			if call == 6 {
				return &par.TransientError{Err: errors.New("Photos timed out")}
			}
			return nil
		}
		uuids := makeUUIDs(2500)
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Big", AssetUUIDs: uuids}

		ctx := context.Background()
		first, err := env.svc.Restore(ctx, plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if first.State != par.StateAbortedPartial {
			t.Fatalf("first outcome state = %s, want aborted_partial", first.State)
		}

		env.auto.AddErr = nil
		second, err := env.svc.Resume(ctx, first.RunID, nil)
		if err != nil {
			t.Fatalf("Resume() error = %v", err)
		}
		if !second.Completed() {
			t.Fatalf("resume outcome state = %s, want completed", second.State)
		}
		if second.AlbumHandle != first.AlbumHandle {
			t.Errorf("resume targeted handle %s, want %s", second.AlbumHandle, first.AlbumHandle)
		}
		if len(second.Confirmed) != 200 {
			t.Errorf("resume confirmed %d assets, want 200", len(second.Confirmed))
		}
		// No duplicate album, and every planned asset is in it exactly once.
		if env.auto.AlbumCount() != 1 {
			t.Errorf("albums created = %d, want 1", env.auto.AlbumCount())
		}
		if got := len(env.auto.Album(first.AlbumHandle).AssetUUIDs); got != 2500 {
			t.Errorf("album holds %d assets, want 2500", got)
		}

		run, err := env.jnl.FindRun(ctx, first.RunID)
		if err != nil {
			t.Fatalf("FindRun() error = %v", err)
		}
		if run.State != par.StateCompleted {
			t.Errorf("journal run state = %s, want completed", run.State)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		if _, err := env.svc.Resume(context.Background(), "no-such-run", nil); err == nil {
			t.Fatal("Resume() error = nil, want error")
		}
	})

	t.Run("completed run cannot be resumed", func(t *testing.T) {
		env := newTestEnv(t, par.Policy{})
		plan := &par.RestorePlan{AlbumUUID: "a", Name: "Done", AssetUUIDs: makeUUIDs(3)}

		ctx := context.Background()
		out, err := env.svc.Restore(ctx, plan, nil)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if _, err := env.svc.Resume(ctx, out.RunID, nil); err == nil {
			t.Fatal("Resume() error = nil, want error")
		}
	})
}
