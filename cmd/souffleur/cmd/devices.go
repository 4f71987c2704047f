package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/internal/listener/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `Lists the audio input devices with the score used for auto-selection.
Virtual and loopback devices are never selected automatically.

Examples:
  souffleur devices
  souffleur listen --device "<name>"   # use a device from the list`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		printError("failed to list input devices", err)
		return err
	}

	fmt.Println("Audio input devices")
	fmt.Println("===================")
	fmt.Println()

	if len(devices) == 0 {
		fmt.Println("No input devices found.")
		return nil
	}

	selected, ok := audio.SelectInputDevice(devices)
	for _, dev := range devices {
		marker := " "
		if ok && dev.Index == selected.Index {
			marker = "*"
		}
		var notes []string
		if dev.IsDefault {
			notes = append(notes, "system default")
		}
		if audio.IsVirtualDevice(dev.Name) {
			notes = append(notes, "virtual")
		}
		fmt.Printf("%s %2d  %-40s  score %3d  %2d ch  %6.0f Hz", marker, dev.Index, dev.Name,
			audio.ScoreDevice(dev.Name), dev.MaxInputChannels, dev.DefaultSampleRate)
		if len(notes) > 0 {
			fmt.Printf("  (%s)", strings.Join(notes, ", "))
		}
		fmt.Println()
	}

	fmt.Println()
	if ok {
		fmt.Printf("* auto-selected: %s\n", selected.Name)
	} else {
		fmt.Println("No physical microphone found; the system default input will be used.")
	}
	return nil
}
