package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typelab/pkg/registry"
	"typelab/pkg/stubs"
)

var stubsCmd = &cobra.Command{
	Use:   "stubs",
	Short: "Populate the registry from Python stubs and pinned bundles",
}

var stubsIngestCmd = &cobra.Command{
	Use:   "ingest <paths...>",
	Short: "Extract classes from Python sources into the class store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(registry.WithLogger(logger))
		ingestor := stubs.NewIngestor(logger)
		result, err := ingestor.Ingest(cmd.Context(), args, reg)
		if err != nil {
			return err
		}

		path, err := dbPath()
		if err != nil {
			return err
		}
		store, err := registry.OpenStore(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Put(result.Classes...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d class(es) from %d file(s) into %s\n",
			len(result.Classes), result.Files, path)
		return nil
	},
}

var stubsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch declared bundles, update the lock, and ingest their stubs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, lock, sources, err := loadBundleState()
		if err != nil {
			return err
		}
		fetcher := stubs.NewFetcher(home, logger)
		dirs, err := fetcher.Sync(cmd.Context(), lock, sources)
		if err != nil {
			return err
		}
		if err := stubs.WriteLockfile(lock, filepath.Join(home, stubs.LockfileName)); err != nil {
			return err
		}

		path, err := dbPath()
		if err != nil {
			return err
		}
		store, err := registry.OpenStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		ingestor := stubs.NewIngestor(logger)
		reg := registry.New(registry.WithLogger(logger))
		total := 0
		for _, dir := range dirs {
			bundle, err := stubs.LoadBundleDir(dir)
			if err != nil {
				return err
			}
			if paths := bundle.StubPaths(dir); len(paths) > 0 {
				result, err := ingestor.Ingest(cmd.Context(), paths, reg)
				if err != nil {
					return err
				}
				if err := store.Put(result.Classes...); err != nil {
					return err
				}
				total += len(result.Classes)
			}
			for _, manifestPath := range bundle.RegistryPaths(dir) {
				manifest, err := registry.LoadManifest(manifestPath)
				if err != nil {
					return err
				}
				if err := reg.Merge(manifest); err != nil {
					return err
				}
				if err := store.Put(manifest.Classes...); err != nil {
					return err
				}
				total += len(manifest.Classes)
			}
			logger.Info("bundle ingested", zap.String("bundle", bundle.Name), zap.String("dir", dir))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched %d bundle(s), stored %d class(es)\n", len(dirs), total)
		return nil
	},
}

var stubsLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Resolve declared bundles and pin them without ingesting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, lock, sources, err := loadBundleState()
		if err != nil {
			return err
		}
		fetcher := stubs.NewFetcher(home, logger)
		if _, err := fetcher.Sync(cmd.Context(), lock, sources); err != nil {
			return err
		}
		lockPath := filepath.Join(home, stubs.LockfileName)
		if err := stubs.WriteLockfile(lock, lockPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pinned %d bundle(s) in %s\n", len(lock.Bundles), lockPath)
		return nil
	},
}

func loadBundleState() (string, *stubs.Lockfile, *stubs.Sources, error) {
	home, err := typelabHome()
	if err != nil {
		return "", nil, nil, err
	}
	sources, err := stubs.LoadSources(filepath.Join(home, stubs.SourcesFileName))
	if err != nil {
		return "", nil, nil, fmt.Errorf("load %s: %w", stubs.SourcesFileName, err)
	}
	lock, err := stubs.LoadLockfile(filepath.Join(home, stubs.LockfileName))
	if err != nil {
		if !os.IsNotExist(err) {
			return "", nil, nil, err
		}
		lock = stubs.NewLockfile("typelab " + Version)
	}
	return home, lock, sources, nil
}

func init() {
	stubsCmd.AddCommand(stubsIngestCmd)
	stubsCmd.AddCommand(stubsFetchCmd)
	stubsCmd.AddCommand(stubsLockCmd)
}
