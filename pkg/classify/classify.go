// Package classify decides whether each destructured hook variable holds
// data or a callable action.
//
// The priority chain per variable is:
//  1. a per-library return-shape table for known hooks,
//  2. an external type-resolution query when a resolver is configured, with
//     a suspicion override when naming strongly suggests a function but the
//     resolved type is bare non-function data,
//  3. naming-convention heuristics.
//
// A failed or absent resolver changes classification accuracy only, never
// the output shape. Classification is idempotent: the same inputs always
// yield the same result.
package classify

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/flowlens/pkg/model"
)

// resolverCacheSize bounds the resolved-type LRU. Entries are keyed by
// content hash so stale file versions can never be wrongly reused.
const resolverCacheSize = 4096

// VarRef identifies one variable occurrence to classify.
type VarRef struct {
	Name   string
	Line   int
	Column int
}

// Classifier runs the data/function classification chain.
type Classifier struct {
	resolver TypeResolver
	cache    *lru.Cache[string, ResolvedType]
	logger   *slog.Logger
}

// NewClassifier creates a classifier. resolver may be nil, in which case
// classification uses shape tables and heuristics only.
func NewClassifier(resolver TypeResolver, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, ResolvedType](resolverCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create resolver cache: %v", err))
	}
	return &Classifier{resolver: resolver, cache: cache, logger: logger}
}

// ClassifyHook classifies every variable of one hook occurrence.
//
// contentKey scopes resolver-cache entries to one version of the file
// (typically a content hash); callers analyzing in-memory sources may pass
// any stable per-analysis key.
func (c *Classifier) ClassifyHook(ctx context.Context, filePath, contentKey, hookName string, vars []VarRef) map[string]model.VarKind {
	out := make(map[string]model.VarKind, len(vars))
	if len(vars) == 0 {
		return out
	}

	// Priority 1: known per-library return shape. Variables in a known
	// hook's shape but unmapped default to data; unknown hooks fall through
	// entirely.
	if shape, ok := shapeFor(hookName); ok {
		for _, v := range vars {
			if kind, mapped := shape[v.Name]; mapped {
				out[v.Name] = kind
			} else {
				out[v.Name] = model.VarData
			}
		}
		return out
	}

	// Priority 2: external type resolution.
	resolved := c.resolveAll(ctx, filePath, contentKey, vars)

	for _, v := range vars {
		if rt, ok := resolved[v.Name]; ok {
			out[v.Name] = c.fromResolvedType(v.Name, rt)
			continue
		}
		// Priority 3: naming heuristics.
		out[v.Name] = heuristicKind(v.Name)
	}
	return out
}

// fromResolvedType converts a resolver answer to a kind, applying the
// suspicion override: a function-like name with a bare non-function resolved
// type distrusts the resolver (destructuring renames and type-widening can
// produce misleading answers for common action-like names).
func (c *Classifier) fromResolvedType(name string, rt ResolvedType) model.VarKind {
	if rt.IsFunction {
		return model.VarFunction
	}
	if IsFunctionLikeName(name) {
		c.logger.Debug("suspicious type result, preferring heuristic",
			"variable", name,
			"resolvedType", rt.TypeString)
		return model.VarFunction
	}
	return model.VarData
}

// resolveAll queries the resolver for every variable lacking a cached
// answer, batching when the resolver supports it. Resolver failures degrade
// to heuristics per variable and never abort the occurrence.
func (c *Classifier) resolveAll(ctx context.Context, filePath, contentKey string, vars []VarRef) map[string]ResolvedType {
	resolved := make(map[string]ResolvedType, len(vars))
	if c.resolver == nil {
		return resolved
	}

	var misses []TypeRequest
	for _, v := range vars {
		key := cacheKey(contentKey, v)
		if rt, ok := c.cache.Get(key); ok {
			resolved[v.Name] = rt
			continue
		}
		misses = append(misses, TypeRequest{
			FilePath: filePath,
			Variable: v.Name,
			Line:     v.Line,
			Column:   v.Column,
		})
	}
	if len(misses) == 0 {
		return resolved
	}

	if batch, ok := c.resolver.(BatchTypeResolver); ok {
		answers, err := batch.ResolveTypes(ctx, misses)
		if err != nil {
			c.logger.Warn("batched type resolution failed, falling back to heuristics",
				"file", filePath,
				"variables", len(misses),
				"error", err)
			return resolved
		}
		for _, req := range misses {
			if rt, ok := answers[req.Variable]; ok {
				resolved[req.Variable] = rt
				c.cache.Add(cacheKey(contentKey, VarRef{req.Variable, req.Line, req.Column}), rt)
			}
		}
		return resolved
	}

	for _, req := range misses {
		rt, err := c.resolver.ResolveType(ctx, req)
		if err != nil {
			c.logger.Warn("type resolution failed for variable",
				"file", filePath,
				"variable", req.Variable,
				"error", err)
			continue
		}
		if rt == nil {
			continue
		}
		resolved[req.Variable] = *rt
		c.cache.Add(cacheKey(contentKey, VarRef{req.Variable, req.Line, req.Column}), *rt)
	}
	return resolved
}

// heuristicKind applies naming heuristics only.
func heuristicKind(name string) model.VarKind {
	if IsFunctionLikeName(name) {
		return model.VarFunction
	}
	return model.VarData
}

func cacheKey(contentKey string, v VarRef) string {
	return fmt.Sprintf("%s:%s:%d:%d", contentKey, v.Name, v.Line, v.Column)
}
