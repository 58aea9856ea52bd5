package main

import (
	"errors"
	"fmt"

	"github.com/normanking/cortexlip/internal/store"
	"github.com/spf13/cobra"
)

var errHistoryDisabled = errors.New("history is disabled (store.enabled=false)")

func withStore(cmd *cobra.Command, fn func(history store.Store) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	history, err := a.openStore()
	if err != nil {
		return err
	}
	if history == nil {
		return errHistoryDisabled
	}
	defer history.Close()
	return fn(history)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show and delete saved analyses",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withStore(cmd, func(history store.Store) error {
				records, err := history.List(limit)
				if err != nil {
					return fmt.Errorf("failed to list analyses: %w", err)
				}
				if len(records) == 0 {
					fmt.Println(dimStyle.Render("No analyses saved. Run 'cortexlip analyze --save'."))
					return nil
				}

				fmt.Println(titleStyle.Render("Analyses"))
				fmt.Println()
				for _, rec := range records {
					fmt.Printf("%s %s\n", successStyle.Render("●"), rec.AudioPath)
					fmt.Printf("  %s\n", dimStyle.Render(fmt.Sprintf("%s | %s | %d markers, %d frames",
						rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), rec.MarkerCount, rec.FrameCount)))
				}
				return nil
			})
		},
	}
	listCmd.Flags().Int("limit", 20, "Maximum number of analyses to list (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printTrack, _ := cmd.Flags().GetBool("track")
			return withStore(cmd, func(history store.Store) error {
				rec, err := history.Load(args[0])
				if err != nil {
					return err
				}

				fmt.Println(titleStyle.Render(rec.ID))
				fmt.Println()
				fmt.Printf("  Audio:      %s\n", rec.AudioPath)
				fmt.Printf("  Log:        %s\n", rec.LogPath)
				fmt.Printf("  Samples:    %d @ %d Hz\n", rec.TotalSamples, rec.SampleRate)
				fmt.Printf("  Markers:    %d\n", rec.MarkerCount)
				fmt.Printf("  Frames:     %d\n", rec.FrameCount)
				fmt.Printf("  Silence:    %v\n", rec.SilenceCorrection)
				fmt.Printf("  Created:    %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				if printTrack {
					fmt.Println()
					fmt.Print(rec.Track)
				}
				return nil
			})
		},
	}
	showCmd.Flags().Bool("track", false, "Also print the stored track file")

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(history store.Store) error {
				if err := history.Delete(args[0]); err != nil {
					return err
				}
				fmt.Println(successStyle.Render("✓ Deleted " + args[0]))
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}
