package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/configs"
	ctxPkg "github.com/yeisme/docvault/pkg/context"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage"
	"github.com/yeisme/docvault/pkg/log"
)

var (
	cleanupGraceDays int
	cleanupDryRun    bool

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "purge trashed documents past the grace period",
		Long:  "扫描回收站中超过宽限期的文档并彻底清除, 等价于定时清扫任务的单次运行.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}
			log.Init()

			mgr, err := storage.Init(cmd.Context())
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}

			graceDays := cleanupGraceDays
			if graceDays <= 0 {
				graceDays = configs.GetConfig().Versioning.GracePeriodDays
			}
			cutoff := time.Now().Add(-time.Duration(graceDays) * 24 * time.Hour)

			ctx := ctxPkg.WithStorageManager(cmd.Context(), mgr)
			svc := service.NewDocumentService(ctx)

			result, err := svc.ReapExpired(ctx, cutoff, cleanupDryRun)
			if err != nil {
				return err
			}

			mode := "purged"
			if result.DryRun {
				mode = "would purge"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d trashed documents, %s %d (grace period %d days)\n",
				result.Scanned, mode, result.Purged, graceDays)
			for _, f := range result.Failed {
				fmt.Fprintln(cmd.OutOrStdout(), "failed: "+f)
			}

			return nil
		},
	}
)

func registerCleanupCommand() {
	cleanupCmd.Flags().IntVar(&cleanupGraceDays, "grace-period-days", 0,
		"override the grace period in days (default from config)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false,
		"report what would be purged without deleting anything")

	rootCmd.AddCommand(cleanupCmd)
}
