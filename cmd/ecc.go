// Package cmd provides command-line interface for raw sector images.
// This file contains commands for verifying and rebuilding the EDC/ECC of
// 2352-byte sector images.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hansbonini/discfix/pkg"
	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/sector"
)

// eccCmd represents the parent command for all sector EDC/ECC operations.
var eccCmd = &cobra.Command{
	Use:   "ecc",
	Short: "Verify or rebuild sector EDC/ECC",
	Long: `Verify or rebuild the sync, header, EDC and ECC of raw 2352-byte sectors.

Commands:
  verify    Check every sector of an image
  rebuild   Regenerate prefix and suffix for every sector

Examples:
  discfix ecc verify disc.bin --workers 8
  discfix ecc rebuild track.bin rebuilt.bin --type mode2form1 --start 0`,
}

// eccVerifyCmd checks every sector of an image.
var eccVerifyCmd = &cobra.Command{
	Use:   "verify [input_file]",
	Short: "Check every sector of an image",
	Long: `Check the EDC and ECC of every sector of a raw image in parallel.

Sectors are classified by their sync pattern and mode byte. Audio and Mode 0
sectors, and Mode 2 Form 2 sectors recorded without EDC, are not failures.
The command exits with an error when any sector fails.

Example:
  discfix ecc verify disc.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		if cmd.Flags().Changed("workers") {
			cfg.ECC.Workers, _ = cmd.Flags().GetInt("workers")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		start, _ := cmd.Flags().GetInt64("start")

		processor := pkg.NewImageProcessor(cfg.ECC.Workers, cfg.ECC.MaxFailures)
		summary, err := processor.Verify(cmd.Context(), inputFile, start)
		if err != nil {
			return fmt.Errorf("failed to verify image: %w", err)
		}

		rows := [][]string{
			{"Sectors", humanize.Comma(summary.Sectors)},
			{"Size", humanize.IBytes(uint64(summary.Sectors) * sector.CD_SECTOR_SIZE)},
		}
		for _, status := range summary.Statuses() {
			rows = append(rows, []string{status.String(), humanize.Comma(summary.Counts[status])})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Sectors"}, rows, []columnAlignment{alignLeft, alignRight}))

		if len(summary.Failures) > 0 {
			failRows := make([][]string, 0, len(summary.Failures))
			for _, f := range summary.Failures {
				failRows = append(failRows, []string{strconv.FormatInt(f.LBA, 10), common.LBAToMSF(f.LBA), f.Type.String(), f.Status.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"LBA", "MSF", "Type", "Status"}, failRows, []columnAlignment{alignRight, alignRight}))
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d sectors failed verification", summary.Failed)
		}
		return nil
	},
}

// eccRebuildCmd regenerates prefix and suffix of every sector.
var eccRebuildCmd = &cobra.Command{
	Use:   "rebuild [input_file] [output_file]",
	Short: "Regenerate prefix and suffix for every sector",
	Long: `Rewrite the sync pattern, header and EDC/ECC of every sector as the given
track type, keeping the user data. Sector n of the input gets the header time
of LBA start+n.

Track types: mode1, mode2form1, mode2form2

Example:
  discfix ecc rebuild track.bin rebuilt.bin --type mode1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputFile := args[1]

		typeName, _ := cmd.Flags().GetString("type")
		trackType, err := sector.ParseTrackType(typeName)
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetInt64("start")

		processor := pkg.NewImageProcessor(cfg.ECC.Workers, cfg.ECC.MaxFailures)
		rebuilt, err := processor.Rebuild(inputFile, outputFile, trackType, start)
		if err != nil {
			return fmt.Errorf("failed to rebuild image: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %s sectors as %s: %s\n", humanize.Comma(rebuilt), trackType, outputFile)
		return nil
	},
}

// init initializes the ecc command with its subcommands and flags.
func init() {
	rootCmd.AddCommand(eccCmd)
	eccCmd.AddCommand(eccVerifyCmd)
	eccCmd.AddCommand(eccRebuildCmd)

	eccCmd.PersistentFlags().Int64("start", 0, "LBA of the first sector in the image")

	eccVerifyCmd.Flags().Int("workers", 0, "Concurrent verification workers (default from config)")

	eccRebuildCmd.Flags().String("type", "mode1", "Track type of the image")
}
