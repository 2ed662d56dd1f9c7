package parser

import (
	"path/filepath"
	"strings"
)

// Language selects a tree-sitter grammar.
type Language int

const (
	// LanguageTypeScript covers .ts/.mts/.cts, and .tsx via the TSX variant.
	LanguageTypeScript Language = iota
	// LanguageJavaScript covers .js/.jsx/.mjs/.cjs.
	LanguageJavaScript
	// LanguageUnknown marks unsupported extensions.
	LanguageUnknown
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage maps a file path to its grammar. Vue single-file
// components parse their carved script block with the TypeScript grammar,
// which accepts plain JavaScript as well.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts", ".tsx", ".vue", ".svelte":
		return LanguageTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}

// IsTSXFile reports whether the path needs the TSX grammar variant. JSX
// appears in .jsx and .tsx; component sources with unknown extensions are
// not TSX.
func IsTSXFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".tsx"
}

// IsVueFile reports whether the path is a Vue single-file component.
func IsVueFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".vue"
}

// IsSvelteFile reports whether the path is a Svelte component.
func IsSvelteFile(filePath string) bool {
	return strings.ToLower(filepath.Ext(filePath)) == ".svelte"
}

// IsComponentFile reports whether the path is an analyzable component
// source.
func IsComponentFile(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}
