package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typelab/pkg/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and manage the class registry",
}

var registryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the classes the checker would resolve against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, err := buildChecker()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, cls := range checker.Registry().Classes() {
			var flags []string
			if cls.Final {
				flags = append(flags, "final")
			}
			if cls.Solid {
				flags = append(flags, "solid")
			}
			suffix := ""
			if len(flags) > 0 {
				suffix = "  [" + strings.Join(flags, ", ") + "]"
			}
			bases := strings.Join(cls.Bases, ", ")
			fmt.Fprintf(out, "%-24s (%s)%s\n", cls.Name, bases, suffix)
		}
		return nil
	},
}

var registryImportCmd = &cobra.Command{
	Use:   "import <manifest.yaml>...",
	Short: "Merge manifest classes into the persistent class store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dbPath()
		if err != nil {
			return err
		}
		store, err := registry.OpenStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		// Validate against a scratch registry first so conflicts surface
		// before anything is persisted.
		scratch := registry.New(registry.WithLogger(logger))
		imported := 0
		for _, manifestPath := range args {
			manifest, err := registry.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			if err := scratch.Merge(manifest); err != nil {
				return err
			}
			if err := store.Put(manifest.Classes...); err != nil {
				return err
			}
			imported += len(manifest.Classes)
		}
		logger.Info("imported classes", zap.Int("count", imported), zap.String("db", path))
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d class(es) into %s\n", imported, path)
		return nil
	},
}

var registryExportCmd = &cobra.Command{
	Use:   "export <out.yaml>",
	Short: "Write the working registry (builtins included) as a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checker, err := buildChecker()
		if err != nil {
			return err
		}
		manifest := checker.Registry().Export()
		if err := manifest.Write(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d class(es) to %s\n", len(manifest.Classes), args[0])
		return nil
	},
}

func init() {
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryImportCmd)
	registryCmd.AddCommand(registryExportCmd)
}
