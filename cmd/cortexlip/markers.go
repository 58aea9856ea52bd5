package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/normanking/cortexlip/internal/acoustic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	headerCell = lipgloss.NewStyle().Bold(true)
	cell       = lipgloss.NewStyle()
)

// renderMarkerTable prints markers as aligned columns; the last column is
// the label for the selected mode.
func renderMarkerTable(w io.Writer, markers []acoustic.VowelMarker, mode acoustic.LabelMode) {
	headers := []string{"#", "from", "to", "mid", "cv", "rms", "dBFS", "relMax", "relSum", "label"}
	widths := []int{5, 7, 7, 7, 7, 10, 9, 9, 9, 10}

	var line strings.Builder
	for i, h := range headers {
		line.WriteString(headerCell.Width(widths[i]).Render(h))
	}
	fmt.Fprintln(w, titleStyle.Render(line.String()))

	for i, m := range markers {
		fields := []string{
			strconv.Itoa(i),
			strconv.Itoa(m.FromFrame),
			strconv.Itoa(m.ToFrame),
			strconv.Itoa(m.Frame),
			m.CV,
			strconv.FormatFloat(m.RMS, 'f', 5, 64),
			strconv.FormatFloat(m.DBFS, 'f', 1, 64),
			strconv.FormatFloat(m.RelMax, 'f', 3, 64),
			strconv.FormatFloat(m.RelSum, 'f', 3, 64),
			acoustic.Label(m, mode),
		}
		line.Reset()
		for j, f := range fields {
			line.WriteString(cell.Width(widths[j]).Render(f))
		}
		fmt.Fprintln(w, line.String())
	}
}

func newMarkersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Print the vowel markers of the last alignment block",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			audioPath, _ := cmd.Flags().GetString("audio")
			logPath, _ := cmd.Flags().GetString("log")
			labelName, _ := cmd.Flags().GetString("label")
			format, _ := cmd.Flags().GetString("format")

			mode, err := acoustic.ParseLabelMode(labelName)
			if err != nil {
				return err
			}

			sess, err := a.openSession(cmd, audioPath)
			if err != nil {
				return err
			}
			if err := runLog(sess, logPath); err != nil {
				return err
			}
			markers := sess.Markers()

			switch format {
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				if err := enc.Encode(markers); err != nil {
					return fmt.Errorf("encode markers: %w", err)
				}
				return enc.Close()
			case "table":
				if len(markers) == 0 {
					fmt.Println(dimStyle.Render("No vowel markers."))
					return nil
				}
				renderMarkerTable(os.Stdout, markers, mode)
				return nil
			}
			return fmt.Errorf("unknown format %q (want table or yaml)", format)
		},
	}

	cmd.Flags().String("audio", "", "WAV file the recognizer was run on")
	cmd.Flags().String("log", "", "Julius log containing forced alignment output")
	cmd.Flags().String("label", "cv", "Label column: aiueon, cv, dbfs, relsum, relmax, relvowelsum, normpos, none")
	cmd.Flags().String("format", "table", "Output format: table or yaml")
	cmd.MarkFlagRequired("audio")
	cmd.MarkFlagRequired("log")
	return cmd
}
