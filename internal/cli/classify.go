package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xaenox/return-analyzer/internal/analyzer"
	"github.com/xaenox/return-analyzer/internal/report"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [reason...]",
	Short: "Classify a single return reason and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		svc, store, err := buildService(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		req := analyzer.Request{Reason: strings.Join(args, " ")}
		if idx, _ := cmd.Flags().GetInt("product"); idx >= 0 {
			req.ProductIndex = &idx
		}

		a, err := svc.Analyze(cmd.Context(), req)
		if errors.Is(err, analyzer.ErrEmptyReason) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: Please enter a return reason")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), report.Text(a))
		return nil
	},
}

func init() {
	classifyCmd.Flags().IntP("product", "p", -1, "Catalog index of the returned product")
}
