package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"helixprint/internal/fileutil"
	"helixprint/internal/phase"
)

type gcodeTransform struct {
	use   string
	short string
	apply func(string) string
}

func newInstrumentCommand() *cobra.Command {
	cmd := newGcodeCommand(gcodeTransform{
		use:   "instrument [file]",
		short: "Insert phase tracking markers into gcode",
		apply: phase.Instrument,
	})
	var stats bool
	cmd.Flags().BoolVar(&stats, "stats", false, "Report the phases that would be marked instead of writing gcode")
	inner := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !stats {
			return inner(cmd, args)
		}
		text, err := readGcode(cmd, args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderPhaseCounts(phase.Count(text)))
		return nil
	}
	return cmd
}

func newStripCommand() *cobra.Command {
	return newGcodeCommand(gcodeTransform{
		use:   "strip [file]",
		short: "Remove phase tracking markers from gcode",
		apply: phase.Strip,
	})
}

// newGcodeCommand builds a local text transform reading a file or stdin.
func newGcodeCommand(t gcodeTransform) *cobra.Command {
	var output string
	var inPlace bool

	cmd := &cobra.Command{
		Use:         t.use,
		Short:       t.short,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace {
				if len(args) == 0 {
					return fmt.Errorf("--in-place requires a file argument")
				}
				if output != "" {
					return fmt.Errorf("--in-place and --output are mutually exclusive")
				}
				output = args[0]
			}
			text, err := readGcode(cmd, args)
			if err != nil {
				return err
			}
			result := t.apply(text)
			if output == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), result)
				return err
			}
			mode := os.FileMode(0o644)
			if info, statErr := os.Stat(output); statErr == nil {
				mode = info.Mode().Perm()
			}
			if err := fileutil.WriteAtomic(output, []byte(result), mode); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to a file")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Rewrite the input file")
	return cmd
}

func readGcode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func renderPhaseCounts(counts map[phase.Phase]int) string {
	order := make(map[phase.Phase]int)
	for i, p := range phase.Patterns() {
		if _, ok := order[p.Phase]; !ok {
			order[p.Phase] = i
		}
	}
	phases := make([]phase.Phase, 0, len(counts))
	for p := range counts {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return order[phases[i]] < order[phases[j]] })

	rows := make([][]string, 0, len(phases))
	for _, p := range phases {
		rows = append(rows, []string{phaseLabel(p), strconv.Itoa(counts[p])})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"(no phases)", "0"})
	}
	return renderTable("Phase Markers", []string{"Phase", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
