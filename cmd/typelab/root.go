// Command typelab is a workbench for a gradual set-theoretic type algebra:
// relation queries, simplification, materialization, a REPL, registry and
// stub management, a conformance harness, and a JSON query service.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"typelab/pkg/registry"
	"typelab/pkg/typeset"
)

// Exit codes: 0 the verdict holds (or the command succeeded), 1 the verdict
// is false or cases failed, 2 usage or evaluation errors.
const (
	exitTrue  = 0
	exitFalse = 1
	exitError = 2
)

// errVerdict marks a successful evaluation whose answer is "no"; it maps to
// exit code 1 without an error message.
var errVerdict = errors.New("verdict is false")

var (
	logger = zap.NewNop()

	flagConfig   string
	flagRegistry []string
	flagDB       string
	flagVerbose  bool
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:           "typelab",
	Short:         "typelab is a gradual set-theoretic type algebra workbench",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (default: $HOME/.typelab/config.yaml)")
	flags.StringSliceVar(&flagRegistry, "registry", nil, "extra registry manifest(s) to merge")
	flags.StringVar(&flagDB, "db", "", "class database (default: $HOME/.typelab/classes.db)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "errors only")
	viper.BindPFlag("registry", flags.Lookup("registry"))
	viper.BindPFlag("db", flags.Lookup("db"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("quiet", flags.Lookup("quiet"))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(simplifyCmd)
	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(stubsCmd)
	rootCmd.AddCommand(conformanceCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI and maps errors onto exit codes.
func Execute() int {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err == nil {
		return exitTrue
	}
	if errors.Is(err, errVerdict) {
		return exitFalse
	}
	fmt.Fprintf(os.Stderr, "typelab: %v\n", err)
	return exitError
}

// initConfig wires viper precedence: flag > TYPELAB_* env > config file >
// default.
func initConfig() error {
	viper.SetEnvPrefix("TYPELAB")
	viper.AutomaticEnv()
	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", flagConfig, err)
		}
		return nil
	}
	home, err := typelabHome()
	if err != nil {
		return nil
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	switch {
	case viper.GetBool("verbose"):
		cfg.Level.SetLevel(zap.DebugLevel)
	case viper.GetBool("quiet"):
		cfg.Level.SetLevel(zap.ErrorLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = log
	return nil
}

func typelabHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".typelab"), nil
}

func dbPath() (string, error) {
	if path := viper.GetString("db"); path != "" {
		return path, nil
	}
	home, err := typelabHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "classes.db"), nil
}

// buildChecker assembles the working registry: builtins, then the persistent
// class store when it exists, then any --registry manifests, and returns a
// checker bound to it.
func buildChecker() (*typeset.Checker, error) {
	reg := registry.New(registry.WithLogger(logger))

	path, err := dbPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			store, err := registry.OpenStore(path)
			if err != nil {
				return nil, err
			}
			loaded, err := store.LoadInto(reg)
			closeErr := store.Close()
			if err != nil {
				return nil, err
			}
			if closeErr != nil {
				return nil, closeErr
			}
			logger.Debug("loaded class store", zap.String("path", path), zap.Int("classes", loaded))
		}
	}

	for _, path := range viper.GetStringSlice("registry") {
		manifest, err := registry.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Merge(manifest); err != nil {
			return nil, err
		}
	}
	return typeset.New(reg, typeset.WithLogger(logger)), nil
}
