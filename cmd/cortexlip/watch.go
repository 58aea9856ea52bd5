package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/normanking/cortexlip/internal/bus"
	"github.com/normanking/cortexlip/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a growing recognizer log and re-export the track after every block",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			audioPath, _ := cmd.Flags().GetString("audio")
			logPath, _ := cmd.Flags().GetString("log")
			outPath, _ := cmd.Flags().GetString("out")
			if outPath == "" {
				outPath = defaultTrackPath(audioPath)
			}

			sess, err := a.openSession(cmd, audioPath)
			if err != nil {
				return err
			}

			a.eventBus.Subscribe(bus.EventTypeTrackSynthesized, func(e bus.Event) {
				if err := sess.ExportTrack(outPath); err != nil {
					a.logger.Error("watch", "export failed", err, nil)
					return
				}
				fmt.Printf("%s %s %s\n",
					successStyle.Render("✓"),
					outPath,
					dimStyle.Render(fmt.Sprintf("(%v frames)", e.Data["frames"])))
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				select {
				case <-sigChan:
					a.logger.Info("watch", "shutting down", nil)
					cancel()
				case <-ctx.Done():
				}
			}()

			fmt.Println(titleStyle.Render("Watching " + logPath))
			fmt.Println(dimStyle.Render("Press Ctrl+C to stop."))

			tailer := watch.NewTailer(logPath, sess, a.logger.Component("watch"))
			// a new recognizer run must not inherit a half-read block
			tailer.OnRestart(sess.Reset)
			err = tailer.Run(ctx)
			sess.Flush()
			return err
		},
	}

	cmd.Flags().String("audio", "", "WAV file the recognizer is running on")
	cmd.Flags().String("log", "", "Julius log file to follow")
	cmd.Flags().String("out", "", "Track file to write (default <audio>.adxlip)")
	cmd.Flags().Bool("silence-correction", false, "Hold the last voiced frame over silent frames")
	cmd.MarkFlagRequired("audio")
	cmd.MarkFlagRequired("log")
	return cmd
}
