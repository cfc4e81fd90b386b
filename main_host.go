//go:build !tinygo

package main

import (
	"fmt"
	"os"

	"railos/internal/buildinfo"
	"railos/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "railos",
		Short:         "Model railway control microkernel",
		Long:          "railos boots the microkernel on simulated hardware: a terminal line, a Märklin train controller line, a timer and a framebuffer.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: railos.yaml in ., ./configs or ~/.railos)")
	rootCmd.AddCommand(runCmd, configCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "railos:", err)
		os.Exit(1)
	}
}
