package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/bryanchriswhite/framegrab/internal/capture"
	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices [DEVICE]",
	Short: "List V4L2 cameras and their formats",
	Long: `List the pixel formats and frame sizes offered by V4L2 camera nodes.
Without an argument every /dev/video* node is probed.`,
	Example: `  # All cameras
  framegrab devices

  # One camera as JSON
  framegrab devices /dev/video2 --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDevices,
}

var devicesFormat string

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.Flags().StringVarP(&devicesFormat, "format", "f", "table", "output format (table or json)")
}

type deviceFormats struct {
	Device  string               `json:"device"`
	Formats []capture.FormatInfo `json:"formats"`
	Error   string               `json:"error,omitempty"`
}

func runDevices(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	log := logger.WithComponent("devices")

	paths := args
	if len(paths) == 0 {
		found, err := filepath.Glob("/dev/video*")
		if err != nil {
			return err
		}
		sort.Strings(found)
		paths = found
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No V4L2 devices found")
		return nil
	}

	var out []deviceFormats
	for _, p := range paths {
		formats, err := capture.ListFormats(p)
		d := deviceFormats{Device: p, Formats: formats}
		if err != nil {
			log.Debug().Err(err).Str("device", p).Msg("Could not query device")
			d.Error = err.Error()
		}
		out = append(out, d)
	}

	switch devicesFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	case "table":
		return printDevicesTable(cmd.OutOrStdout(), out)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", devicesFormat)
	}
}

func printDevicesTable(w io.Writer, devices []deviceFormats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "DEVICE\tFOURCC\tDESCRIPTION\tSIZES")
	fmt.Fprintln(tw, "------\t------\t-----------\t-----")

	for _, d := range devices {
		if d.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t%s\t-\n", d.Device, d.Error)
			continue
		}
		for _, f := range d.Formats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Device, f.FourCC, f.Description, strings.Join(f.FrameSizes, " "))
		}
	}
	return nil
}
