package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/smazurov/statusled/internal/config"
	"github.com/smazurov/statusled/internal/led"
	"github.com/spf13/cobra"
)

// CreatePatternsCmd creates the patterns command.
func CreatePatternsCmd() *cobra.Command {
	var ledsFile string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List available blink patterns",
		Long:  `Prints the built-in patterns merged with the [patterns] table of the LED wiring file, with their cycle length.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(ledsFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range catalog.All() {
				durations := make([]string, len(p.Durations))
				for i, d := range p.Durations {
					durations[i] = fmt.Sprint(d)
				}
				fmt.Fprintf(out, "%-20s %6dms  [%s]\n", p.Name, p.Period().Milliseconds(), strings.Join(durations, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ledsFile, "leds-file", "leds.toml", "LED wiring file with custom patterns")
	return cmd
}

// loadCatalog returns the catalog for a wiring file, or the built-ins when
// the file does not exist.
func loadCatalog(path string) (*led.Catalog, error) {
	hw, err := config.LoadHardware(path)
	if errors.Is(err, os.ErrNotExist) {
		return led.DefaultCatalog(), nil
	}
	if err != nil {
		return nil, err
	}
	return hw.Catalog()
}
