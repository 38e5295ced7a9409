// Package cmd implements the planteuf command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/km-arc/go-planteuf/app"
	frameworkapp "github.com/km-arc/go-planteuf/framework/app"
	"github.com/km-arc/go-planteuf/framework/factory"
)

var version = "dev"

var rootCmd = newRootCmd(factory.Global())

// options are the persistent flags shared by every subcommand.
type options struct {
	factory    *factory.Factory
	configFile string
	envFiles   []string
}

func newRootCmd(f *factory.Factory) *cobra.Command {
	opts := &options{factory: f}

	root := &cobra.Command{
		Use:          "planteuf",
		Short:        "Task orchestrator built on a lazy object-graph factory",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return exportConfigFile(opts.configFile)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"YAML config file; keys are exported as environment variables (app.name -> APP_NAME)")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"},
		"dotenv files to load, in order")

	root.AddCommand(
		newServeCmd(opts),
		newGraphCmd(opts),
		newKeysCmd(opts),
	)
	return root
}

// exportConfigFile reads path with viper and sets one environment variable
// per leaf key. Variables already present in the environment win.
func exportConfigFile(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, set := os.LookupEnv(name); set {
			continue
		}
		value := v.GetString(key)
		if _, isList := v.Get(key).([]any); isList {
			value = strings.Join(v.GetStringSlice(key), ",")
		}
		if err := os.Setenv(name, value); err != nil {
			return err
		}
	}
	return nil
}

// newApplication registers the framework and application providers on
// opts.factory without building anything.
func newApplication(opts *options) (*frameworkapp.Application, error) {
	a, err := frameworkapp.New(opts.factory, opts.envFiles...)
	if err != nil {
		return nil, err
	}
	if err := a.Register(&app.RouteServiceProvider{}); err != nil {
		return nil, err
	}
	return a, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
