package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

func NewGetCommand(env *Env) *cobra.Command {
	var binary bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a stored password",
		Long: `Retrieve and print the password for the service and user.

Only the raw value is printed, making it suitable for scripting. Secrets that
are not UTF-8 fail with a bad encoding error; read them with --binary, which
prints them base64 encoded.

Examples:
  export TOKEN=$(keyring -s my-service -u my-name get)
  keyring -s my-service -u my-name get --binary | base64 -d > key.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := env.Entry()
			if err != nil {
				return err
			}
			defer env.finish()

			if binary {
				secret, err := entry.GetSecret()
				if err != nil {
					return env.fail(entry, "get", err)
				}
				return writeLine(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(secret))
			}

			password, err := entry.GetPassword()
			if err != nil {
				return env.fail(entry, "get", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), password)
			return err
		},
	}

	cmd.Flags().BoolVar(&binary, "binary", false, "Print the raw secret base64 encoded")

	return cmd
}
