package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/normanking/cortexlip/internal/bus"
	"github.com/normanking/cortexlip/internal/lipsync"
	"github.com/normanking/cortexlip/internal/logging"
	"github.com/normanking/cortexlip/internal/store"
	"github.com/normanking/cortexlip/internal/track"
	"github.com/spf13/cobra"
)

var errNoBlock = errors.New("no forced alignment block with a phoneme section found")

// runLog feeds a whole log file through the session
func runLog(sess *lipsync.Session, logPath string) error {
	raw, err := os.ReadFile(logPath)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	if _, err := sess.Write(raw); err != nil {
		return err
	}
	sess.Flush()

	if sess.Blocks() == 0 {
		return errNoBlock
	}
	return nil
}

// pipelineComponent tags trace entries in the logger history
const pipelineComponent = "pipeline"

var traceEvents = []bus.EventType{
	bus.EventTypeBlockStarted,
	bus.EventTypeBlockFinished,
	bus.EventTypeMarkersBuilt,
	bus.EventTypeTrackSynthesized,
	bus.EventTypeTrackExported,
}

// tracePipeline records pipeline events in the logger history
func tracePipeline(eventBus *bus.EventBus, logger *logging.Logger) {
	eventBus.SubscribeMultiple(traceEvents, func(e bus.Event) {
		logger.Info(pipelineComponent, string(e.Type), e.Data)
	})
}

// printTrace writes the recorded pipeline events and every warning or error
// logged during the run
func printTrace(w io.Writer, logger *logging.Logger) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Pipeline"))
	for _, e := range logger.GetHistory(0) {
		if e.Component != pipelineComponent && e.Level != "warn" && e.Level != "error" {
			continue
		}
		line := fmt.Sprintf("  %s  %-26s %s", e.Timestamp, e.Message, e.Data)
		if e.Level == "warn" || e.Level == "error" {
			fmt.Fprintln(w, errorStyle.Render(strings.TrimRight(line, " ")))
			continue
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	if path := logger.GetLogPath(); path != "" {
		fmt.Fprintln(w, dimStyle.Render("  Log file: "+path))
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build a viseme track from an audio file and its alignment log",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose && !cmd.Flags().Changed("log-level") {
				cmd.Flags().Set("log-level", "debug")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if verbose {
				tracePipeline(a.eventBus, a.logger)
			}

			audioPath, _ := cmd.Flags().GetString("audio")
			logPath, _ := cmd.Flags().GetString("log")
			outPath, _ := cmd.Flags().GetString("out")
			save, _ := cmd.Flags().GetBool("save")
			if outPath == "" {
				outPath = defaultTrackPath(audioPath)
			}

			sess, err := a.openSession(cmd, audioPath)
			if err != nil {
				return err
			}
			if err := runLog(sess, logPath); err != nil {
				return err
			}
			if err := sess.ExportTrack(outPath); err != nil {
				return err
			}

			markers := sess.Markers()
			rows := sess.Track()

			fmt.Println(successStyle.Render("✓ Track written: " + outPath))
			fmt.Println()
			fmt.Printf("  Markers: %d\n", len(markers))
			fmt.Printf("  Frames:  %d (%d voiced)\n", len(rows), track.Voiced(rows))
			fmt.Printf("  Audio:   %s\n", dimStyle.Render(fmt.Sprintf("%s, %d Hz, %s", audioPath, sess.Audio().SampleRate, sess.Audio().Duration())))
			if sess.SilenceCorrection() {
				fmt.Printf("  %s\n", dimStyle.Render("silence correction on"))
			}
			if verbose {
				printTrace(cmd.OutOrStdout(), a.logger)
			}

			if !save {
				return nil
			}
			history, err := a.openStore()
			if err != nil {
				return err
			}
			if history == nil {
				fmt.Println(dimStyle.Render("History is disabled (store.enabled=false); not saved."))
				return nil
			}
			defer history.Close()

			rec := store.NewRecord(audioPath, logPath)
			rec.SampleRate = sess.Audio().SampleRate
			rec.TotalSamples = sess.Audio().TotalSamples()
			rec.SilenceCorrection = sess.SilenceCorrection()
			rec.MarkerCount = len(markers)
			rec.FrameCount = len(rows)

			var text strings.Builder
			if err := track.NewEncoder(&text, audioPath).Encode(rows); err != nil {
				return err
			}
			rec.Track = text.String()

			if err := history.Save(rec); err != nil {
				return fmt.Errorf("failed to save analysis: %w", err)
			}
			fmt.Printf("  ID:      %s\n", dimStyle.Render(rec.ID))
			return nil
		},
	}

	cmd.Flags().String("audio", "", "WAV file the recognizer was run on")
	cmd.Flags().String("log", "", "Julius log containing forced alignment output")
	cmd.Flags().String("out", "", "Track file to write (default <audio>.adxlip)")
	cmd.Flags().Bool("silence-correction", false, "Hold the last voiced frame over silent frames")
	cmd.Flags().Bool("save", false, "Record the analysis in the history database")
	cmd.Flags().BoolP("verbose", "v", false, "Print the pipeline events and warnings of this run")
	cmd.MarkFlagRequired("audio")
	cmd.MarkFlagRequired("log")
	return cmd
}
