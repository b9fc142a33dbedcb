package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scaffold",
		Short:         "Compile, inspect and render scaffold templates",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd); err != nil {
				return err
			}
			processGlobalFlags()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.scaffold.yaml)")
	flags.StringSlice("source", []string{"."}, "template source directories")
	flags.String("target", "", "directory receiving compiled listings")
	flags.String("extension", ".html", "template file extension")
	flags.String("s3-bucket", "", "read templates from this S3 bucket")
	flags.String("s3-prefix", "", "key prefix of templates in the S3 bucket")
	flags.String("pg-url", "", "read templates from this PostgreSQL database")
	flags.String("pg-table", "templates", "table holding templates in PostgreSQL")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("profile", "", "profile mode (cpu, mem, block, mutex, trace)")
	flags.String("profile-path", "", "directory for profile output")

	root.AddCommand(
		newRenderCmd(),
		newTokensCmd(),
		newAstCmd(),
		newDisCmd(),
		newCheckCmd(),
		newHelpersCmd(),
	)
	return root
}

// initConfig binds flags to viper keys and reads the optional config file
// and SCAFFOLD_ environment variables.
func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("scaffold")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".scaffold")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		if os.IsNotExist(err) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", filepath.Base(viper.ConfigFileUsed()), err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}
