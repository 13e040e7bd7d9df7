package main

import (
	"fmt"

	"github.com/dkoosis/qatally/internal/config"
	"github.com/dkoosis/qatally/internal/version"
	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	var force, user bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file holding the built-in defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := g.configPath
			switch {
			case path != "":
			case user:
				p, err := config.UserConfigPath()
				if err != nil {
					return failedError(err)
				}
				path = p
			default:
				path = config.FileName
			}
			if err := config.WriteDefault(path, force); err != nil {
				return failedError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&user, "user", false, "write to the user config directory")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd, g, nil)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return failedError(err)
			}
			out := cmd.OutOrStdout()
			source := cfg.Path
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(out, "# source: %s\n", source)
			_, err = out.Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
