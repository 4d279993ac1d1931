package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/drivetools/drive-migrate/internal/auth"
	"github.com/drivetools/drive-migrate/internal/logging"
	"github.com/drivetools/drive-migrate/pkg/driveclient"
	"github.com/drivetools/drive-migrate/pkg/logger"
	"github.com/drivetools/drive-migrate/pkg/manifest"
	"github.com/drivetools/drive-migrate/pkg/migrator"
	"github.com/drivetools/drive-migrate/pkg/retry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

type migrateConfig struct {
	manifestPath    string
	credentialsFile string
	tokenFile       string
	backupFolder    string
	excludes        []string
	maxRetries      int
	backoffBase     time.Duration
	maxQPS          int
	maxDepth        int
	quiet           bool
}

func main() {
	var cfg migrateConfig

	rootCmd := &cobra.Command{
		Use:   "drive-migrate [ManifestFile]",
		Short: "Migrate Drive files and folders listed in a manifest into a backup folder",
		Long: `drive-migrate reads a "name,url" manifest, duplicates every listed Drive
item in place and relocates the original into a backup folder. Folders are
mirrored recursively; their originals move only after the whole subtree has
been processed.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cfg.manifestPath = args[0]
			}
			return run(context.Background(), &cfg)
		},
	}

	rootCmd.Flags().StringVar(&cfg.manifestPath, "manifest", "files_to_migrate.csv", "Manifest CSV file (name,url per row)")
	rootCmd.Flags().StringVar(&cfg.credentialsFile, "credentials", "credentials.json", "OAuth client credentials file")
	rootCmd.Flags().StringVar(&cfg.tokenFile, "token", "token.json", "Cached OAuth token file")
	rootCmd.Flags().StringVar(&cfg.backupFolder, "backup-folder", migrator.DefaultBackupFolderName, "Name of the backup folder under the Drive root")
	rootCmd.Flags().StringSliceVar(&cfg.excludes, "exclude", nil, "Item name patterns to skip (multiple allowed)")
	rootCmd.Flags().IntVar(&cfg.maxRetries, "max-retries", retry.DefaultMaxAttempts, "Attempts per remote call before giving up")
	rootCmd.Flags().DurationVar(&cfg.backoffBase, "backoff-base", retry.DefaultBaseDelay, "Base delay for exponential backoff")
	rootCmd.Flags().IntVar(&cfg.maxQPS, "max-qps", retry.DefaultMaxQPS, "Client-side request rate cap (<= 0 disables)")
	rootCmd.Flags().IntVar(&cfg.maxDepth, "max-depth", migrator.DefaultMaxDepth, "Maximum folder recursion depth")
	rootCmd.Flags().BoolVar(&cfg.quiet, "quiet", false, "Suppress non-error output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *migrateConfig) error {
	log := logging.NewLogger(cfg.quiet)

	rows, err := manifest.Load(cfg.manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", cfg.manifestPath, err)
	}
	if len(rows) == 0 {
		log.Info("Manifest %s has no data rows, nothing to migrate", cfg.manifestPath)
		return nil
	}

	httpClient, err := auth.NewHTTPClient(ctx, auth.Config{
		CredentialsFile: cfg.credentialsFile,
		TokenFile:       cfg.tokenFile,
		Scopes: []string{
			drive.DriveScope,
			drive.DriveFileScope,
			drive.DriveMetadataScope,
		},
	})
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("initialize Drive service: %w", err)
	}

	progress := &logger.MigrateLogger{IsQuiet: cfg.quiet}

	policy := retry.New(retry.Config{
		MaxAttempts: cfg.maxRetries,
		BaseDelay:   cfg.backoffBase,
		MaxQPS:      cfg.maxQPS,
	})
	policy.OnRetry = progress.Retry

	client := driveclient.NewGoogleClient(svc, policy)
	m := migrator.New(client, migrator.Options{
		BackupFolderName: cfg.backupFolder,
		Excludes:         cfg.excludes,
		MaxDepth:         cfg.maxDepth,
		Logger:           progress,
	})

	backupRoot, err := m.EnsureBackupRoot(ctx)
	if err != nil {
		return fmt.Errorf("backup folder %q: %w", cfg.backupFolder, err)
	}
	log.Info("Using backup folder %q (%s)", cfg.backupFolder, backupRoot)

	start := time.Now()
	sum := m.Run(ctx, rows, backupRoot)
	log.PrintSummary(
		sum.Migrated,
		sum.AlreadyDone,
		sum.Skipped+sum.UnrecognizedURLs,
		sum.Failed,
		sum.BytesDuplicated,
		time.Since(start),
	)

	if sum.Failed > 0 {
		return fmt.Errorf("%d items failed", sum.Failed)
	}
	return nil
}
