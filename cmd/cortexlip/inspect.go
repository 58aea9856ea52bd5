package main

import (
	"fmt"
	"time"

	"github.com/normanking/cortexlip/internal/track"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [track-file]",
		Short: "Import a track file and report what was read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			strict, _ := cmd.Flags().GetBool("strict")
			opts := track.DecodeOptions{Strict: strict || a.cfg.Analysis.StrictImport}

			rows, report, err := track.ImportFile(args[0], opts, a.logger.Component("track"))
			if err != nil {
				return err
			}

			duration := time.Duration(len(rows)) * time.Second / track.FrameRate

			fmt.Println(titleStyle.Render(args[0]))
			fmt.Println()
			fmt.Printf("  Rows:     %d\n", report.Rows)
			fmt.Printf("  Voiced:   %d\n", track.Voiced(rows))
			fmt.Printf("  Duration: %s\n", duration)
			if report.HeaderLines < track.HeaderLines {
				fmt.Printf("  %s\n", errorStyle.Render(fmt.Sprintf("header is only %d lines", report.HeaderLines)))
			}
			if report.Coerced > 0 {
				fmt.Printf("  Coerced:  %s\n", dimStyle.Render(fmt.Sprintf("%d fields read as 0", report.Coerced)))
			}

			if len(report.Skipped) == 0 {
				fmt.Println(successStyle.Render("  ✓ no rows skipped"))
				return nil
			}
			fmt.Println(errorStyle.Render(fmt.Sprintf("  %d rows skipped", len(report.Skipped))))
			for _, s := range report.Skipped {
				fmt.Printf("    line %d: %s\n", s.Line, dimStyle.Render(s.Reason()))
			}
			return nil
		},
	}

	cmd.Flags().Bool("strict", false, "Reject rows with unparsable numbers instead of reading 0")
	return cmd
}
