// Package main provides the CLI entry point for cortexlip.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/normanking/cortexlip/internal/alignment"
	"github.com/normanking/cortexlip/internal/audio"
	"github.com/normanking/cortexlip/internal/bus"
	"github.com/normanking/cortexlip/internal/config"
	"github.com/normanking/cortexlip/internal/lipsync"
	"github.com/normanking/cortexlip/internal/logging"
	"github.com/normanking/cortexlip/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	version = "dev"

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// app is the per-invocation state shared by commands
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	eventBus *bus.EventBus
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger, err := logging.New(&logging.Config{
		LogDir:     cfg.Logging.Dir,
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxHistory: cfg.Logging.MaxHistory,
		Console:    cfg.Logging.Console,
		Out:        os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, eventBus: bus.NewEventBus()}, nil
}

func (a *app) Close() {
	a.eventBus.Clear()
	a.logger.Close()
}

// sessionOptions merges config with per-command flags
func (a *app) sessionOptions(cmd *cobra.Command, audioPath string) (lipsync.Options, error) {
	enc, err := alignment.ParseEncoding(a.cfg.Recognizer.LogEncoding)
	if err != nil {
		return lipsync.Options{}, err
	}

	opts := lipsync.Options{
		AudioPath:         audioPath,
		FrameShiftMs:      a.cfg.Analysis.FrameShiftMs,
		Encoding:          enc,
		SilenceCorrection: a.cfg.Analysis.SilenceCorrection,
		StrictImport:      a.cfg.Analysis.StrictImport,
	}
	if f := cmd.Flags().Lookup("silence-correction"); f != nil && f.Changed {
		opts.SilenceCorrection, _ = cmd.Flags().GetBool("silence-correction")
	}
	return opts, nil
}

// openSession loads the audio and creates a session around it
func (a *app) openSession(cmd *cobra.Command, audioPath string) (*lipsync.Session, error) {
	buf, err := audio.LoadWAV(audioPath)
	if err != nil {
		return nil, err
	}
	opts, err := a.sessionOptions(cmd, audioPath)
	if err != nil {
		return nil, err
	}

	a.logger.Info("cli", "audio loaded", map[string]interface{}{
		"path":        audioPath,
		"sample_rate": buf.SampleRate,
		"samples":     buf.TotalSamples(),
	})
	return lipsync.NewSession(buf, opts, a.eventBus, a.logger.Component("session")), nil
}

// openStore returns nil when history is disabled
func (a *app) openStore() (store.Store, error) {
	if !a.cfg.Store.Enabled {
		return nil, nil
	}
	return store.NewSQLiteStore(a.cfg.Store.Path)
}

// defaultTrackPath replaces the audio extension with .adxlip
func defaultTrackPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".adxlip"
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cortexlip",
		Short: "Lip-sync tracks from Julius forced alignment",
		Long: titleStyle.Render("cortexlip") + `

Builds 60 fps AIUEON viseme tracks from a Julius forced-alignment log
and the audio it was run on:
• Parse forced-alignment blocks from recognizer output
• Measure vowel loudness against the waveform
• Export, import and inspect track files

` + dimStyle.Render("Use 'cortexlip [command] --help' for more information."),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.cortexlip/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newWatchCmd(),
		newMarkersCmd(),
		newInspectCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
