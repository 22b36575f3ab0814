package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getpulpo/fleet-importer/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download pending spreadsheets from the FTP inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := os.MkdirAll(cfg.Dirs.Pending, 0o755); err != nil {
			return err
		}

		inbox := fetcher.NewInbox(fetcher.InboxOptions{
			URL:      cfg.FTP.URL,
			User:     cfg.FTP.User,
			Password: cfg.FTP.Password,
			Timeout:  time.Duration(cfg.FTP.TimeoutSecs) * time.Second,
		})

		files, err := inbox.DownloadAll(ctx, cfg.Dirs.Pending)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			zap.L().Info("inbox is empty")
			return nil
		}
		zap.L().Info("inbox fetched",
			zap.Int("files", len(files)),
			zap.String("dest", cfg.Dirs.Pending),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
