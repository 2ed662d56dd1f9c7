package parser

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseTypeScript(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	source := []byte(`import { ref } from 'vue';
const count = ref(0);
function increment(): void { count.value++; }
`)
	tree, err := manager.Parse(source, LanguageTypeScript, false)
	require.NoError(t, err, "Parse should succeed")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	root := tree.RootNode()
	assert.NotNil(t, root, "Root node should not be nil")
	assert.Equal(t, "program", root.Kind(), "Root should be a program node")
}

func TestParseTSX(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	source := []byte(`import { useState } from 'react';

export function Counter() {
  const [count, setCount] = useState(0);
  return <button onClick={() => setCount(count + 1)}>{count}</button>;
}
`)
	tree, err := manager.Parse(source, LanguageTypeScript, true)
	require.NoError(t, err, "Parse should succeed")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind(), "Root should be a program node")

	// The TSX grammar should recognize JSX elements
	treeString := root.ToSexp()
	assert.Contains(t, treeString, "jsx", "Should contain JSX nodes")
}

func TestParseJavaScript(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	source := []byte(`export function Greeting({ name }) {
  return name ? "Hello, " + name : "Hello";
}
`)
	tree, err := manager.Parse(source, LanguageJavaScript, false)
	require.NoError(t, err, "Parse should succeed")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	assert.Equal(t, "program", tree.RootNode().Kind(), "Root should be a program node")
}

func TestParseFile(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	testCases := []struct {
		fileName string
		source   string
	}{
		{"Counter.ts", "const x: number = 1;"},
		{"Counter.tsx", "const el = <div>hi</div>;"},
		{"Counter.js", "const x = 1;"},
		{"Counter.jsx", "const el = <div>hi</div>;"},
	}

	for _, tc := range testCases {
		t.Run(tc.fileName, func(t *testing.T) {
			tree, err := manager.ParseFile([]byte(tc.source), tc.fileName)
			require.NoError(t, err, "ParseFile should succeed for %s", tc.fileName)
			require.NotNil(t, tree, "Tree should not be nil")
			defer tree.Close()

			assert.Equal(t, "program", tree.RootNode().Kind(), "Root node kind should match")
		})
	}
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	tree, err := manager.ParseFile([]byte("not a component"), "README.md")
	assert.Error(t, err, "Should return error for unsupported extension")
	assert.Nil(t, tree)
}

func TestLazyInitialization(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	// Initially, no parsers should be created
	stats := manager.GetStats()
	assert.Equal(t, 0, stats.ParsersCreated, "Should start with 0 parsers")

	// Parse TypeScript
	source := []byte("const x: number = 1;")
	tree, err := manager.Parse(source, LanguageTypeScript, false)
	require.NoError(t, err)
	require.NotNil(t, tree)
	tree.Close()

	// Now one parser should exist
	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated, "Should have created 1 parser")
	assert.Equal(t, 1, stats.ParsesCalled, "Should have called Parse once")

	// Parse TypeScript again - should reuse parser
	tree, err = manager.Parse(source, LanguageTypeScript, false)
	require.NoError(t, err)
	require.NotNil(t, tree)
	tree.Close()

	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated, "Should still have 1 parser (reused)")
	assert.Equal(t, 2, stats.ParsesCalled, "Should have called Parse twice")

	// Parse JavaScript - should create new parser
	tree, err = manager.Parse([]byte("const y = 2;"), LanguageJavaScript, false)
	require.NoError(t, err)
	require.NotNil(t, tree)
	tree.Close()

	stats = manager.GetStats()
	assert.Equal(t, 2, stats.ParsersCreated, "Should have created 2 parsers")
	assert.Equal(t, 3, stats.ParsesCalled, "Should have called Parse 3 times")
}

func TestLanguageDetection(t *testing.T) {
	testCases := []struct {
		filePath string
		expected Language
	}{
		{"Counter.ts", LanguageTypeScript},
		{"Counter.tsx", LanguageTypeScript},
		{"Card.vue", LanguageTypeScript},
		{"Card.svelte", LanguageTypeScript},
		{"Counter.js", LanguageJavaScript},
		{"Counter.jsx", LanguageJavaScript},
		{"util.mjs", LanguageJavaScript},
		{"util.cjs", LanguageJavaScript},
		{"notes.txt", LanguageUnknown},
		{"README.md", LanguageUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			lang := DetectLanguage(tc.filePath)
			assert.Equal(t, tc.expected, lang, "Language detection should match")
		})
	}
}

func TestIsTSXFile(t *testing.T) {
	testCases := []struct {
		filePath string
		expected bool
	}{
		{"Counter.tsx", true},
		{"Counter.TSX", true}, // Case insensitive
		{"Counter.ts", false},
		{"Counter.js", false},
		{"Counter.jsx", false},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsTSXFile(tc.filePath), "TSX detection should match")
		})
	}
}

func TestComponentFileDetection(t *testing.T) {
	assert.True(t, IsComponentFile("src/Counter.tsx"))
	assert.True(t, IsComponentFile("src/Card.vue"))
	assert.True(t, IsComponentFile("src/legacy.js"))
	assert.False(t, IsComponentFile("src/styles.css"))
	assert.False(t, IsComponentFile("README.md"))

	assert.True(t, IsVueFile("Card.vue"))
	assert.False(t, IsVueFile("Card.tsx"))
	assert.True(t, IsSvelteFile("Card.svelte"))
	assert.False(t, IsSvelteFile("Card.vue"))
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("some random text"), LanguageUnknown, false)
	assert.Error(t, err, "Should return error for unknown language")
	assert.Nil(t, tree, "Tree should be nil for unknown language")
}

func TestParseInvalidSyntax(t *testing.T) {
	manager := NewManager(testLogger())
	defer manager.Close()

	// Invalid TypeScript syntax
	source := []byte("const x: = ;")
	tree, err := manager.Parse(source, LanguageTypeScript, false)
	require.NoError(t, err, "Parse should not return error even for invalid syntax")
	require.NotNil(t, tree, "Tree should not be nil")
	defer tree.Close()

	// Tree should have errors
	assert.True(t, tree.RootNode().HasError(), "Root should have errors for invalid syntax")
}

func TestMemoryCleanup(t *testing.T) {
	manager := NewManager(testLogger())

	// Create parsers for both grammars
	source := []byte("const x = 1;")
	for _, lang := range []Language{LanguageTypeScript, LanguageJavaScript} {
		tree, err := manager.Parse(source, lang, false)
		if err == nil && tree != nil {
			tree.Close()
		}
	}

	// Close should clean up all parser pools
	err := manager.Close()
	assert.NoError(t, err, "Close should succeed")

	// Verify pools are cleared
	assert.Empty(t, manager.pools, "Pools map should be empty after Close")
}

func TestLanguageString(t *testing.T) {
	testCases := []struct {
		lang     Language
		expected string
	}{
		{LanguageTypeScript, "typescript"},
		{LanguageJavaScript, "javascript"},
		{LanguageUnknown, "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.lang.String(), "String() should match")
		})
	}
}
