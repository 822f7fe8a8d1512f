package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"par-go/internal/app"
	"par-go/internal/config"
	"par-go/internal/par"
	"par-go/internal/shell"

	"github.com/spf13/cobra"
)

// Exit codes: 0 success or clean no-op, 1 fatal setup error, 2 partial
// restore, 3 user abort before any mutation.
const (
	exitPartial = 2
	exitAborted = 3
)

func main() {
	// Interrupts cancel between batches, leaving a resumable partial run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ec *exitError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		os.Exit(1)
	}
}

// exitError carries a distinguished process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// newApp reads the config and creates a PARApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "ListDeletedAlbums").
// libraryOverride, when non-empty, takes precedence over the configured library path.
func newApp(operation string, libraryOverride string) (*app.PARApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file yet: run with defaults.
		cfg = config.NewConfig(defaults["base_dir"])
	}

	if libraryOverride != "" {
		cfg.LibraryPath = libraryOverride
	}

	a, err := app.NewPARApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "par",
	Short:         "Recover deleted albums from a Photos library",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Create config with defaults
		cfg := config.NewConfig(defaults["base_dir"])

		// Initialize config file
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Read config
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		// Display config
		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Library:     %s\n", orDefault(cfg.LibraryPath, "(system default)"))
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Journal:     %s (%s)\n", cfg.Journal.Type, cfg.Journal.DataDir)
		fmt.Printf("Automation:  %s\n", cfg.Automation.Type)
		fmt.Printf("Batch Size:  %d\n", cfg.Restore.BatchSize)
		fmt.Printf("Max Retries: %d\n", cfg.Restore.MaxRetries)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recoverable deleted albums",
	RunE: func(cmd *cobra.Command, args []string) error {
		library, _ := cmd.Flags().GetString("library")

		a, err := newApp("ListDeletedAlbums", library)
		if err != nil {
			return err
		}
		defer a.Close()

		albums, err := a.ListDeletedAlbums(cmd.Context())
		if err != nil {
			return err
		}

		if len(albums) == 0 {
			fmt.Println("No deleted albums found.")
			return nil
		}

		for _, al := range albums {
			title := al.Title
			if title == "" {
				title = "(untitled)"
			}
			deleted := "unknown"
			if !al.TrashedAt.IsZero() {
				deleted = al.TrashedAt.Format("2006-01-02")
			}
			fmt.Printf("%s  %-30s  deleted %s  %d photo(s)\n", al.UUID, title, deleted, al.AssetCount)
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore [ALBUM_UUID]",
	Short: "Restore a deleted album",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, _ := cmd.Flags().GetString("library")
		yes, _ := cmd.Flags().GetBool("yes")
		allowEmpty, _ := cmd.Flags().GetBool("allow-empty")

		a, err := newApp("Restore", library)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()

		albums, err := a.ListDeletedAlbums(ctx)
		if err != nil {
			return err
		}
		if len(albums) == 0 {
			fmt.Println("No deleted albums found.")
			return nil
		}

		sel := shell.New()

		var album par.AlbumRecord
		if len(args) == 1 {
			found := false
			for _, al := range albums {
				if al.UUID == args[0] {
					album = al
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("no recoverable deleted album with UUID %s", args[0])
			}
		} else {
			if !sel.IsInteractive() {
				return fmt.Errorf("stdin is not a terminal; pass an album UUID (see 'par list')")
			}
			chosen, ok, err := sel.Choose(albums)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted. No changes made.")
				return &exitError{code: exitAborted, msg: "aborted by user"}
			}
			album = chosen
		}

		if !yes {
			if !sel.IsInteractive() {
				return fmt.Errorf("stdin is not a terminal; pass --yes to skip confirmation")
			}
			title := album.Title
			if title == "" {
				title = "(untitled)"
			}
			ok, err := sel.Confirm(fmt.Sprintf("Restore the album %q?", title))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted. No changes made.")
				return &exitError{code: exitAborted, msg: "aborted by user"}
			}
		}

		plan, err := a.ResolveMembership(ctx, album)
		var emptyErr *par.EmptyAlbumError
		if errors.As(err, &emptyErr) {
			if !allowEmpty {
				fmt.Printf("%v. Pass --allow-empty to create it anyway.\n", emptyErr)
				return nil
			}
		} else if err != nil {
			return err
		}

		reportPlan(plan)

		out, err := a.Restore(ctx, plan, func(batch, total int) {
			fmt.Printf("Batch %d of %d done\n", batch, total)
		})
		if err != nil {
			return err
		}

		return reportOutcome(plan.Name, out)
	},
}

// resume command
var resumeCmd = &cobra.Command{
	Use:   "resume RUN_ID",
	Short: "Resume a partial restore run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Resume", "")
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.Resume(cmd.Context(), args[0], func(batch, total int) {
			fmt.Printf("Batch %d of %d done\n", batch, total)
		})
		if err != nil {
			return err
		}

		return reportOutcome("", out)
	},
}

// runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "View restore run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("Runs", "")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No restore runs recorded.")
			return nil
		}

		for _, r := range runs {
			finished := "running"
			if !r.FinishedAt.IsZero() {
				finished = r.FinishedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-30s  %-15s  started %s  finished %s  %d asset(s)\n",
				r.ID, r.AlbumName, string(r.State),
				r.StartedAt.Format("2006-01-02 15:04:05"), finished, r.TotalAssets)
		}
		return nil
	},
}

// reportPlan prints resolver warnings before any mutation happens.
func reportPlan(plan *par.RestorePlan) {
	if plan.NameCollision {
		fmt.Printf("Warning: an album named %q already exists; a second one will be created.\n", plan.Name)
	}
	if plan.SkippedPurged > 0 {
		fmt.Printf("Skipping %d permanently deleted photo(s).\n", plan.SkippedPurged)
	}
	if plan.SkippedTrashed > 0 {
		fmt.Printf("Skipping %d photo(s) in Recently Deleted.\n", plan.SkippedTrashed)
	}
	if plan.SkippedMissing > 0 {
		fmt.Printf("Skipping %d photo(s) with missing files.\n", plan.SkippedMissing)
	}
}

// reportOutcome prints the terminal result and maps it to an exit code.
func reportOutcome(albumName string, out *par.Outcome) error {
	if out.Completed() {
		if albumName != "" {
			fmt.Printf("Album %q restored with %d photo(s). Run ID: %s\n", albumName, len(out.Confirmed), out.RunID)
		} else {
			fmt.Printf("Run %s completed: %d photo(s) added.\n", out.RunID, len(out.Confirmed))
		}
		return nil
	}

	fmt.Printf("Restore incomplete: %d photo(s) added, %d not confirmed.\n", len(out.Confirmed), len(out.Unconfirmed))
	for i, u := range out.Unconfirmed {
		if i == 10 {
			fmt.Printf("  ... and %d more (recorded in the journal)\n", len(out.Unconfirmed)-i)
			break
		}
		fmt.Printf("  %s\n", u)
	}
	fmt.Printf("Resume with: par resume %s\n", out.RunID)
	return &exitError{code: exitPartial, msg: fmt.Sprintf("%d asset(s) unconfirmed", len(out.Unconfirmed))}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("library", "", "Path to the Photos library")
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().String("library", "", "Path to the Photos library")
	restoreCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	restoreCmd.Flags().Bool("allow-empty", false, "Create the album even when no photos are recoverable")
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
}
