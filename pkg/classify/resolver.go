package classify

import "context"

// ResolvedType is the answer from an external type-resolution collaborator.
type ResolvedType struct {
	// TypeString is the resolved static type, e.g. "boolean" or
	// "(value: number) => void".
	TypeString string

	// IsFunction reports whether the resolved type denotes a callable.
	IsFunction bool
}

// TypeRequest identifies one variable to resolve.
type TypeRequest struct {
	FilePath string
	Variable string
	Line     int
	Column   int
}

// TypeResolver answers "what is the static type of variable V at position P
// in file F". The collaborator is optional: a nil resolver degrades the
// classifier to pure naming heuristics without changing output shape.
type TypeResolver interface {
	// ResolveType returns nil (no error) when the variable's type cannot be
	// determined.
	ResolveType(ctx context.Context, req TypeRequest) (*ResolvedType, error)
}

// BatchTypeResolver is implemented by resolvers whose contract supports one
// multi-variable request per call site, avoiding a round-trip per variable.
type BatchTypeResolver interface {
	TypeResolver

	// ResolveTypes resolves many variables at once. Variables missing from
	// the returned map are treated as unresolved.
	ResolveTypes(ctx context.Context, reqs []TypeRequest) (map[string]ResolvedType, error)
}
