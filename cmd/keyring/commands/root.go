package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/keyring/internal/config"
	"github.com/systmms/keyring/internal/logging"
)

// NewRootCommand assembles the keyring command tree around env.
func NewRootCommand(env *Env, version string) *cobra.Command {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	if env.Config == nil {
		env.Config = &config.Config{}
	}

	rootCmd := &cobra.Command{
		Use:   "keyring",
		Short: "Store and retrieve passwords in the platform credential store",
		Long: `keyring reads and writes passwords and binary secrets in the credential
store of the host platform: the macOS Keychain, the Windows Credential
Manager, the Linux kernel keyring or the Secret Service.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), debug, noColor)
			logging.SetDefault(logger)

			if configFile != "" {
				env.Config.Path = configFile
			}
			env.Config.Logger = logger
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file path (default "+config.DefaultPath()+")")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVarP(&env.Backend, "backend", "b", "", "Credential store to use (default: highest priority available)")
	flags.StringVarP(&env.Service, "service", "s", "", "Service name")
	flags.StringVarP(&env.User, "user", "u", "", "User name")
	flags.StringVar(&env.Target, "target", "", "Store-specific target attribute")

	rootCmd.AddCommand(
		NewSetCommand(env),
		NewGetCommand(env),
		NewDeleteCommand(env),
		NewBackendsCommand(env),
		NewCompletionCommand(),
	)

	return rootCmd
}
