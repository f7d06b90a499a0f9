package commands

import (
	"github.com/spf13/cobra"
)

func NewDeleteCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm"},
		Short:   "Delete a stored credential",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := env.Entry()
			if err != nil {
				return err
			}
			defer env.finish()

			if err := entry.DeleteCredential(); err != nil {
				return env.fail(entry, "delete", err)
			}
			env.Config.Logger.Info("deleted %s from %s", entry.Identity(), entry.Backend())
			return nil
		},
	}
}
