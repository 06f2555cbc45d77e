// Package stubs populates the class registry from real Python sources:
// tree-sitter ingestion of class definitions, bundle manifests grouping stub
// and registry files, and a git fetcher with a lockfile for pinned bundles.
package stubs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.uber.org/zap"

	"typelab/pkg/registry"
)

// Ingestor extracts class definitions from Python source files.
type Ingestor struct {
	parser *sitter.Parser
	log    *zap.Logger
}

// NewIngestor builds an ingestor with the Python grammar loaded.
func NewIngestor(log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Ingestor{parser: parser, log: log}
}

// Result summarises one ingestion run.
type Result struct {
	Files   int
	Classes []*registry.Class
}

// Ingest parses every .py/.pyi file under the given paths and registers the
// classes it finds. Base lists keep positional superclasses only; keyword
// arguments such as metaclass= are ignored. @final (bare or typing-
// qualified) marks the class final. Nested classes get dotted names.
func (in *Ingestor) Ingest(ctx context.Context, paths []string, reg *registry.Registry) (*Result, error) {
	files, err := collectPythonFiles(paths)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	for _, file := range files {
		classes, err := in.IngestFile(ctx, file)
		if err != nil {
			return nil, err
		}
		result.Files++
		for _, cls := range classes {
			if reg != nil {
				if err := reg.Register(cls); err != nil {
					return nil, fmt.Errorf("stubs: %s: %w", file, err)
				}
			}
			result.Classes = append(result.Classes, cls)
		}
	}
	in.log.Debug("ingested stubs",
		zap.Int("files", result.Files), zap.Int("classes", len(result.Classes)))
	return result, nil
}

// IngestFile extracts the classes defined in a single Python file.
func (in *Ingestor) IngestFile(ctx context.Context, path string) ([]*registry.Class, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stubs: read %s: %w", path, err)
	}
	tree, err := in.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("stubs: parse %s: %w", path, err)
	}
	defer tree.Close()

	module := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var classes []*registry.Class
	walkClasses(tree.RootNode(), content, module, "", false, &classes)
	return classes, nil
}

func walkClasses(node *sitter.Node, content []byte, module, prefix string, final bool, out *[]*registry.Class) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			parseClass(child, content, module, prefix, final, out)
		case "decorated_definition":
			isFinal := false
			for j := 0; j < int(child.NamedChildCount()); j++ {
				inner := child.NamedChild(j)
				if inner.Type() != "decorator" {
					continue
				}
				text := strings.TrimSpace(nodeText(inner, content))
				text = strings.TrimPrefix(text, "@")
				if text == "final" || text == "typing.final" {
					isFinal = true
				}
			}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				inner := child.NamedChild(j)
				if inner.Type() == "class_definition" {
					parseClass(inner, content, module, prefix, isFinal, out)
				}
			}
		case "function_definition":
			// Methods and functions carry no class shape.
		default:
			walkClasses(child, content, module, prefix, false, out)
		}
	}
}

func parseClass(node *sitter.Node, content []byte, module, prefix string, final bool, out *[]*registry.Class) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	if prefix != "" {
		name = prefix + "." + name
	}

	var bases []string
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			arg := supers.NamedChild(i)
			switch arg.Type() {
			case "identifier", "attribute":
				bases = append(bases, nodeText(arg, content))
			case "keyword_argument":
				// metaclass= and friends.
			}
		}
	}

	*out = append(*out, &registry.Class{
		Name:   name,
		Bases:  bases,
		Final:  final,
		Module: module,
	})

	if body := node.ChildByFieldName("body"); body != nil {
		walkClasses(body, content, module, name, false, out)
	}
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func collectPythonFiles(paths []string) ([]string, error) {
	found := make(map[string]struct{})
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stubs: access %s: %w", path, err)
		}
		if !info.IsDir() {
			if isPythonFile(path) {
				found[filepath.Clean(path)] = struct{}{}
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				switch d.Name() {
				case ".git", "__pycache__", "node_modules":
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && isPythonFile(p) {
				found[filepath.Clean(p)] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	files := make([]string, 0, len(found))
	for file := range found {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

func isPythonFile(path string) bool {
	return strings.HasSuffix(path, ".py") || strings.HasSuffix(path, ".pyi")
}
