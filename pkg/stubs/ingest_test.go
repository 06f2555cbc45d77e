package stubs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typelab/pkg/registry"
	"typelab/pkg/stubs"
)

const zooSource = `from typing import final


class Animal:
    pass


class Dog(Animal, metaclass=ABCMeta):
    class Tail:
        pass

    def bark(self):
        class Hidden:
            pass


@final
class Color:
    pass
`

const robotSource = `import abc
import typing


@typing.final
class Robot(abc.ABC):
    ...
`

func writeStubTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zoo.py"), []byte(zooSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "robots.pyi"), []byte(robotSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not python"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "__pycache__"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "__pycache__", "junk.py"), []byte("class Junk: ..."), 0o644))
	return dir
}

func TestIngest(t *testing.T) {
	dir := writeStubTree(t)
	reg := registry.New()
	ingestor := stubs.NewIngestor(nil)

	result, err := ingestor.Ingest(context.Background(), []string{dir}, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Files, "README and __pycache__ are skipped")

	byName := make(map[string]*registry.Class)
	for _, cls := range result.Classes {
		byName[cls.Name] = cls
	}

	require.Contains(t, byName, "Animal")
	require.Contains(t, byName, "Dog")
	require.Contains(t, byName, "Dog.Tail")
	require.Contains(t, byName, "Color")
	require.Contains(t, byName, "Robot")
	assert.NotContains(t, byName, "Hidden", "classes inside function bodies are skipped")
	assert.NotContains(t, byName, "Junk")

	assert.Equal(t, []string{"Animal"}, byName["Dog"].Bases, "keyword arguments are not bases")
	assert.True(t, byName["Color"].Final, "@final marks the class final")
	assert.True(t, byName["Robot"].Final, "@typing.final marks the class final")
	assert.Equal(t, []string{"abc.ABC"}, byName["Robot"].Bases)
	assert.Equal(t, "zoo", byName["Dog"].Module)
	assert.Equal(t, "robots", byName["Robot"].Module)

	assert.True(t, reg.IsSubclass("Dog", "Animal"), "ingested classes land in the registry")
}

func TestIngestFileOnly(t *testing.T) {
	dir := writeStubTree(t)
	ingestor := stubs.NewIngestor(nil)

	classes, err := ingestor.IngestFile(context.Background(), filepath.Join(dir, "robots.pyi"))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Robot", classes[0].Name)
}

func TestIngestMissingPath(t *testing.T) {
	ingestor := stubs.NewIngestor(nil)
	_, err := ingestor.Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Error(t, err)
}
