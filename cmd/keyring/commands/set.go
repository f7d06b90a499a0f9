package commands

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/systmms/keyring/internal/errors"
)

func NewSetCommand(env *Env) *cobra.Command {
	var binary bool

	cmd := &cobra.Command{
		Use:   "set [value]",
		Short: "Store a password or secret",
		Long: `Store a password for the service and user.

The value is taken from the argument, or from the first line of standard
input when no argument is given. With --binary the value is base64 and the
decoded bytes are stored as a secret.

Examples:
  keyring -s my-service -u my-name set 'topS3cr3tP4$$w0rd'
  printf 'AAEC/w==' | keyring -s my-service -u my-name set --binary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			entry, err := env.Entry()
			if err != nil {
				return err
			}
			defer env.finish()

			if binary {
				secret, err := base64.StdEncoding.DecodeString(value)
				if err != nil {
					return kerrors.SimplifyError(fmt.Errorf("decode --binary value: %w", err))
				}
				if err := entry.SetSecret(secret); err != nil {
					return env.fail(entry, "set", err)
				}
			} else if err := entry.SetPassword(value); err != nil {
				return env.fail(entry, "set", err)
			}

			env.Config.Logger.Info("stored %s in %s", entry.Identity(), entry.Backend())
			return nil
		},
	}

	cmd.Flags().BoolVar(&binary, "binary", false, "Value is base64 encoded binary data")

	return cmd
}

func readValue(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read value from stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" && err == io.EOF {
		return "", kerrors.UserError{
			Message:    "No value given",
			Suggestion: "Pass the value as an argument or on standard input",
		}
	}
	return line, nil
}
