// Package main is the terminal front end for stepseq: a headless player, a
// bubbletea pad view and a MIDI port lister.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var (
	tempoBPM   float64
	sampleDir  string
	noSamples  bool
	lenient    bool
	midiOut    string
	patternArg []string
	logLevel   string
	bars       int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stepseq",
	Short: "16-step, three-track drum machine",
	Long: `stepseq plays a 16-step kick/hi-hat/clap pattern through WAV samples
and, optionally, an external MIDI drum module.

Examples:
  stepseq run --bars 4
  stepseq run --tempo 96 --pattern kick=x..x..x...x..x.. --no-samples --midi-out "IAC"
  stepseq tui
  stepseq ports`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play the pattern without a window",
	Args:  cobra.NoArgs,
	RunE:  runHeadless,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal pad view",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	for _, cmd := range []*cobra.Command{runCmd, tuiCmd} {
		cmd.Flags().Float64VarP(&tempoBPM, "tempo", "t", 120, "Tempo in BPM")
		cmd.Flags().StringVarP(&sampleDir, "samples", "s", "samples", "Sample directory")
		cmd.Flags().BoolVar(&noSamples, "no-samples", false, "Do not open the audio device")
		cmd.Flags().BoolVar(&lenient, "lenient", false, "Keep going when a sample fails to load")
		cmd.Flags().StringVarP(&midiOut, "midi-out", "m", "", "Also send notes to the MIDI port whose name contains this")
		cmd.Flags().StringArrayVarP(&patternArg, "pattern", "p", nil, "Override a track row, e.g. kick=x...x...x...x...")
	}
	runCmd.Flags().IntVarP(&bars, "bars", "b", 0, "Stop after this many bars (0 = until interrupted)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports := midiPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI output ports found")
		return nil
	}
	for i, name := range ports {
		fmt.Printf("%d: %s\n", i, name)
	}
	return nil
}
