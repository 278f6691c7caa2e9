package treesitter

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"stratum/internal/engine/source"
)

// LanguageSpec binds a grammar to the file shapes it claims and the node
// kinds that count as structural boundaries.
type LanguageSpec struct {
	Name       string
	Extensions []string
	Boundaries map[string]source.BoundaryKind
}

var builtinSpecs = []LanguageSpec{
	{
		Name:       "go",
		Extensions: []string{".go"},
		Boundaries: map[string]source.BoundaryKind{
			"function_declaration": source.BoundaryFunction,
			"method_declaration":   source.BoundaryMethod,
			"type_declaration":     source.BoundaryType,
			"block":                source.BoundaryBlock,
		},
	},
	{
		Name:       "python",
		Extensions: []string{".py"},
		Boundaries: map[string]source.BoundaryKind{
			"function_definition": source.BoundaryFunction,
			"class_definition":    source.BoundaryType,
			"block":               source.BoundaryBlock,
		},
	},
	{
		Name:       "javascript",
		Extensions: []string{".js", ".mjs", ".cjs"},
		Boundaries: map[string]source.BoundaryKind{
			"function_declaration": source.BoundaryFunction,
			"method_definition":    source.BoundaryMethod,
			"class_declaration":    source.BoundaryType,
			"statement_block":      source.BoundaryBlock,
		},
	},
	{
		Name:       "typescript",
		Extensions: []string{".ts"},
		Boundaries: map[string]source.BoundaryKind{
			"function_declaration":  source.BoundaryFunction,
			"method_definition":     source.BoundaryMethod,
			"class_declaration":     source.BoundaryType,
			"interface_declaration": source.BoundaryType,
			"statement_block":       source.BoundaryBlock,
		},
	},
	{
		Name:       "tsx",
		Extensions: []string{".tsx"},
		Boundaries: map[string]source.BoundaryKind{
			"function_declaration": source.BoundaryFunction,
			"method_definition":    source.BoundaryMethod,
			"class_declaration":    source.BoundaryType,
			"statement_block":      source.BoundaryBlock,
		},
	},
	{
		Name:       "java",
		Extensions: []string{".java"},
		Boundaries: map[string]source.BoundaryKind{
			"method_declaration":      source.BoundaryMethod,
			"constructor_declaration": source.BoundaryMethod,
			"class_declaration":       source.BoundaryType,
			"interface_declaration":   source.BoundaryType,
			"block":                   source.BoundaryBlock,
		},
	},
	{
		Name:       "rust",
		Extensions: []string{".rs"},
		Boundaries: map[string]source.BoundaryKind{
			"function_item": source.BoundaryFunction,
			"impl_item":     source.BoundaryType,
			"struct_item":   source.BoundaryType,
			"enum_item":     source.BoundaryType,
			"block":         source.BoundaryBlock,
		},
	},
	{
		Name:       "css",
		Extensions: []string{".css"},
		Boundaries: map[string]source.BoundaryKind{
			"rule_set": source.BoundaryBlock,
			"block":    source.BoundaryBlock,
		},
	},
	{
		Name:       "html",
		Extensions: []string{".html", ".htm"},
		Boundaries: map[string]source.BoundaryKind{
			"element": source.BoundaryBlock,
		},
	},
}

func grammarFor(name string) (*sitter.Language, error) {
	switch name {
	case "go":
		return sitter.NewLanguage(tree_sitter_go.Language()), nil
	case "python":
		return sitter.NewLanguage(tree_sitter_python.Language()), nil
	case "javascript":
		return sitter.NewLanguage(tree_sitter_javascript.Language()), nil
	case "typescript":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), nil
	case "tsx":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), nil
	case "java":
		return sitter.NewLanguage(tree_sitter_java.Language()), nil
	case "rust":
		return sitter.NewLanguage(tree_sitter_rust.Language()), nil
	case "css":
		return sitter.NewLanguage(tree_sitter_css.Language()), nil
	case "html":
		return sitter.NewLanguage(tree_sitter_html.Language()), nil
	default:
		return nil, fmt.Errorf("unknown language %q", name)
	}
}

// LanguageForPath maps a file path to a built-in language name, or ""
// when no grammar claims the extension.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	for _, spec := range builtinSpecs {
		for _, e := range spec.Extensions {
			if e == ext {
				return spec.Name
			}
		}
	}
	return ""
}
