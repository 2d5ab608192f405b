package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/calmchores/internal/backup"
	"github.com/dukerupert/calmchores/internal/config"
	"github.com/dukerupert/calmchores/internal/database"
	"github.com/dukerupert/calmchores/internal/logging"
	"github.com/dukerupert/calmchores/internal/store"
)

var (
	backupListLimit int
	restoreOut      string
)

// backupCmd uploads one encrypted snapshot right away.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload an encrypted database snapshot now",
	Long: `Snapshot the database, encrypt it with the backup passphrase, and upload
it to the configured S3 bucket. Old snapshots past the retention period are
pruned afterwards.

Available subcommands:
  list    - Show recent snapshot records
  restore - Download and decrypt a snapshot into a new file`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent snapshot records",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Download and decrypt a snapshot into a new file",
	Long: `Download snapshot <id>, decrypt it, check its integrity, and write it to
--out. The running database is never touched; stop the server and swap the
file in by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupRestore,
}

// openManager loads config and the database for a one-off backup command.
func openManager() (*backup.Manager, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	mgr := backup.NewManager(backup.Config{
		S3:            cfg.S3,
		Passphrase:    cfg.BackupPassphrase,
		Interval:      cfg.BackupInterval,
		RetentionDays: cfg.BackupRetention,
	}, db, store.NewBackupStore(db), logger.With("component", "backup"))
	return mgr, db, nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	mgr, db, err := openManager()
	if err != nil {
		return err
	}
	defer db.Close()
	if !mgr.Enabled() {
		return backup.ErrDisabled
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	rec, err := mgr.RunNow(ctx)
	if err != nil {
		return err
	}
	if err := mgr.Cleanup(ctx); err != nil {
		slog.Warn("prune backups", "error", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes) as backup %d\n", rec.S3Key, rec.SizeBytes, rec.ID)
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	mgr, db, err := openManager()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := mgr.List(backupListLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tSIZE\tKEY")
	for _, b := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", b.ID, b.StartedAt.Format(time.RFC3339), b.Summary(), b.SizeBytes, b.S3Key)
	}
	return tw.Flush()
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid backup id %q", args[0])
	}
	if _, err := os.Stat(restoreOut); err == nil {
		return fmt.Errorf("%s already exists", restoreOut)
	}

	mgr, db, err := openManager()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	if err := mgr.Restore(ctx, id, restoreOut); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored backup %d to %s\n", id, restoreOut)
	return nil
}
