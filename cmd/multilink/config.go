package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/multilink-dev/multilink/internal/config"
	"github.com/multilink-dev/multilink/internal/errors"
)

func configCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration file",
	}
	cmd.AddCommand(configInitCmd(cfgFile), configShowCmd(cfgFile))
	return cmd
}

func configInitCmd(cfgFile *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *cfgFile
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return errors.New("L204").Wrap(err)
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("L204").
					WithField("path", path).
					WithDetail("A config file already exists.").
					WithSuggestion("Pass --force to overwrite it.")
			}

			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func configShowCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if p := cfg.Path(); p != "" {
				fmt.Fprintf(out, "# %s\n", p)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
