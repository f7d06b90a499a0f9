package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/keyring/pkg/keyring"
)

type backendOutput struct {
	Name       string   `json:"name"`
	Priority   int      `json:"priority"`
	Platforms  []string `json:"platforms,omitempty"`
	Applicable bool     `json:"applicable"`
	Default    bool     `json:"default"`
	Error      string   `json:"error,omitempty"`
}

func NewBackendsCommand(env *Env) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List credential stores",
		Long: `Display the credential stores registered for this build, in the order
they are tried when no backend is selected. The default store is the first
one that starts and supports this platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := env.load()
			if err != nil {
				return err
			}
			reg := env.registry(def)

			var out []backendOutput
			for _, info := range reg.Backends() {
				b := backendOutput{
					Name:       info.Name,
					Priority:   int(info.Priority),
					Applicable: info.Applicable,
					Default:    info.Default,
				}
				for _, p := range info.Platforms {
					b.Platforms = append(b.Platforms, string(p))
				}
				if info.Err != nil {
					b.Error = info.Err.Error()
				}
				out = append(out, b)
			}

			if jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(out); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "NAME\tPRIORITY\tPLATFORMS\tSTATUS\n")
			_, _ = fmt.Fprintf(w, "----\t--------\t---------\t------\n")
			for _, b := range out {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", b.Name, b.Priority, strings.Join(b.Platforms, ","), status(b, reg.Platform()))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func status(b backendOutput, platform keyring.Platform) string {
	switch {
	case b.Error != "":
		return "error: " + b.Error
	case b.Default:
		return "default"
	case !b.Applicable:
		return "not on " + string(platform)
	default:
		return "available"
	}
}
