// Package cmd provides command-line interface for subchannel processing.
// This file contains commands for repairing and scanning raw subchannel
// files (.sub) dumped alongside CD images.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hansbonini/discfix/pkg"
	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

// subCmd represents the parent command for all subchannel operations.
var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Process raw subchannel files",
	Long: `Process subchannel files holding 96 raw bytes per sector, or 16-byte
formatted Q records with --mode q16.

Commands:
  fix       Repair and reposition subchannel blocks
  scan      Decode the Q channel of every block

Examples:
  discfix sub fix disc.sub fixed.sub --fix --fix-crc
  discfix sub scan disc.sub`,
}

// subFixCmd repairs a subchannel file.
var subFixCmd = &cobra.Command{
	Use:   "fix [input_file] [output_file]",
	Short: "Repair and reposition subchannel blocks",
	Long: `Repair a subchannel file and write every valid block at the position its
Q channel names.

With --fix, damaged P flags and R-W data are cleared and damaged Q frames are
rebuilt from the blocks around them. With --fix-crc, a Q frame whose payload is
consistent with its neighbours gets a fresh CRC as a last resort. Blocks that
cannot be repaired are left out of the output.

When a layout is given, pregaps, ISRCs and the MCN found on the way are
written back to it (or to --layout-out).

Example:
  discfix sub fix disc.sub fixed.sub --layout layout.yaml --fix --report report.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputFile := args[1]

		if err := applySubchannelFlags(cmd); err != nil {
			return err
		}
		opts, err := cfg.EngineOptions()
		if err != nil {
			return err
		}

		start, _ := cmd.Flags().GetInt64("start")
		layoutFile, _ := cmd.Flags().GetString("layout")
		layoutOut, _ := cmd.Flags().GetString("layout-out")
		reportFile, _ := cmd.Flags().GetString("report")
		events, _ := cmd.Flags().GetBool("events")

		req := pkg.FixRequest{Input: inputFile, Output: outputFile, Start: start}
		if layoutFile != "" {
			layout, err := pkg.LoadLayout(layoutFile)
			if err != nil {
				return err
			}
			req.Layout = layout
			if layoutOut == "" {
				layoutOut = layoutFile
			}
		}

		processor := pkg.NewSubchannelProcessor(opts, cfg.Subchannel.PassLength)
		processor.KeepEvents = events

		fmt.Fprintf(cmd.OutOrStdout(), "Processing subchannel file: %s\n", inputFile)
		result, err := processor.Fix(req)
		if err != nil {
			return fmt.Errorf("failed to process subchannel file: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderFixSummary(result))

		if reportFile != "" {
			if err := pkg.WriteReport(reportFile, result.Report(req)); err != nil {
				return err
			}
		}
		if req.Layout != nil && layoutOut != "" {
			if err := req.Layout.Save(layoutOut); err != nil {
				return err
			}
		}
		return nil
	},
}

// subScanCmd decodes the Q channel of a subchannel file.
var subScanCmd = &cobra.Command{
	Use:   "scan [input_file]",
	Short: "Decode the Q channel of every block",
	Long: `Decode the Q channel of every block without repairing anything.

Prints a summary with the number of valid frames and a CRC-16 fingerprint
of the whole Q stream. Use --yaml to export every decoded frame.

Example:
  discfix sub scan disc.sub --start -150 --yaml q.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		if err := applySubchannelFlags(cmd); err != nil {
			return err
		}
		opts, err := cfg.EngineOptions()
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetInt64("start")
		yamlFile, _ := cmd.Flags().GetString("yaml")

		processor := pkg.NewSubchannelProcessor(opts, cfg.Subchannel.PassLength)
		result, err := processor.Scan(inputFile, start)
		if err != nil {
			return fmt.Errorf("failed to scan subchannel file: %w", err)
		}

		rows := [][]string{
			{"Blocks", humanize.Comma(result.Blocks)},
			{"Valid CRC", humanize.Comma(result.ValidCRC)},
			{"Invalid CRC", humanize.Comma(result.Blocks - result.ValidCRC)},
			{"Fingerprint", fmt.Sprintf("%04X", result.Fingerprint)},
		}
		if result.MCN != "" {
			rows = append(rows, []string{"MCN", result.MCN})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

		if yamlFile != "" {
			return pkg.ExportScan(yamlFile, result)
		}
		return nil
	},
}

// applySubchannelFlags copies explicitly set flags over the loaded configuration.
func applySubchannelFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		if _, err := subchannel.ParseMode(mode); err != nil {
			return err
		}
		cfg.Subchannel.Mode = mode
	}
	if flags.Changed("pass-length") {
		cfg.Subchannel.PassLength, _ = flags.GetInt("pass-length")
	}
	if flags.Lookup("fix") != nil && flags.Changed("fix") {
		cfg.Subchannel.Fix, _ = flags.GetBool("fix")
	}
	if flags.Lookup("fix-crc") != nil && flags.Changed("fix-crc") {
		cfg.Subchannel.FixCRC, _ = flags.GetBool("fix-crc")
	}
	if flags.Lookup("no-fix-position") != nil && flags.Changed("no-fix-position") {
		noFix, _ := flags.GetBool("no-fix-position")
		cfg.Subchannel.FixPosition = !noFix
	}
	return cfg.Validate()
}

func renderFixSummary(result *pkg.FixResult) string {
	rows := [][]string{
		{"Blocks read", humanize.Comma(result.Stats.Blocks)},
		{"Blocks written", humanize.Comma(result.Stats.Written)},
		{"Blocks repaired", humanize.Comma(result.Stats.Fixed)},
		{"Blocks left out", humanize.Comma(result.Stats.Unrepaired)},
		{"Before the medium", humanize.Comma(result.Stats.Skipped)},
		{"Outside the output", humanize.Comma(result.Dropped)},
	}
	for _, name := range result.Repairs.Categories() {
		rows = append(rows, []string{"Fix " + name, humanize.Comma(result.Repairs.Fixes[name])})
	}
	if result.Session.Missing != nil {
		for _, e := range result.Session.Missing.Ranges() {
			rows = append(rows, []string{"Missing", strconv.FormatInt(e.Start, 10) + "-" + strconv.FormatInt(e.End, 10)})
		}
	}
	if result.Changed {
		common.LogInfo(common.InfoLayoutChanged)
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

// init initializes the subchannel command with its subcommands and flags.
func init() {
	rootCmd.AddCommand(subCmd)
	subCmd.AddCommand(subFixCmd)
	subCmd.AddCommand(subScanCmd)

	subCmd.PersistentFlags().String("mode", "raw", "Input subchannel mode (raw or q16)")
	subCmd.PersistentFlags().Int64("start", 0, "LBA of the first block in the input file")
	subCmd.PersistentFlags().Int("pass-length", 64, "Sectors handed to the engine per pass")

	subFixCmd.Flags().Bool("fix", false, "Repair P, R-W and Q structure")
	subFixCmd.Flags().Bool("fix-crc", false, "Reseal plausible Q frames as a last resort")
	subFixCmd.Flags().Bool("no-fix-position", false, "Copy blocks unchanged instead of repositioning them")
	subFixCmd.Flags().String("layout", "", "YAML track layout to seed and update")
	subFixCmd.Flags().String("layout-out", "", "Write the updated layout here instead of over --layout")
	subFixCmd.Flags().String("report", "", "Write a YAML repair report")
	subFixCmd.Flags().Bool("events", false, "Include every repair in the report")

	subScanCmd.Flags().String("yaml", "", "Export decoded frames to a YAML file")
}
