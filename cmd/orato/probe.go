package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"orato/pkg/audio"
)

var probeCmd = &cobra.Command{
	Use:   "probe <audio-file>",
	Short: "Print format, sample rate, channels, and duration of a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := audio.Probe(args[0])
		if err != nil {
			return err
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendRows([]table.Row{
			{"path", ref.Path},
			{"format", string(ref.Format)},
			{"sample_rate", fmt.Sprintf("%d Hz", ref.SampleRate)},
			{"channels", ref.Channels},
			{"duration", fmt.Sprintf("%.2f s", ref.Duration)},
		})
		tw.Render()
		return nil
	},
}
