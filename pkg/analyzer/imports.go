package analyzer

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// collectImports maps every imported local name to its module source:
// `import { useQuery } from '@tanstack/react-query'` yields
// useQuery → @tanstack/react-query. Default and namespace imports map the
// binding name; aliased named imports map the alias.
func collectImports(root *ts.Node, source []byte) map[string]string {
	imports := make(map[string]string)
	for i := uint(0); i < uint(root.ChildCount()); i++ {
		stmt := root.Child(i)
		if stmt.Kind() != "import_statement" {
			continue
		}
		src := stmt.ChildByFieldName("source")
		if src == nil {
			continue
		}
		module := stringContent(src, source)
		for j := uint(0); j < uint(stmt.ChildCount()); j++ {
			clause := stmt.Child(j)
			if clause.Kind() != "import_clause" {
				continue
			}
			bindImportClause(clause, module, source, imports)
		}
	}
	return imports
}

func bindImportClause(clause *ts.Node, module string, source []byte, imports map[string]string) {
	for i := uint(0); i < uint(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Kind() {
		case "identifier":
			// Default import.
			imports[child.Utf8Text(source)] = module
		case "namespace_import":
			for j := uint(0); j < uint(child.ChildCount()); j++ {
				if inner := child.Child(j); inner.Kind() == "identifier" {
					imports[inner.Utf8Text(source)] = module
				}
			}
		case "named_imports":
			for j := uint(0); j < uint(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					name = alias
				}
				if name != nil {
					imports[name.Utf8Text(source)] = module
				}
			}
		}
	}
}
