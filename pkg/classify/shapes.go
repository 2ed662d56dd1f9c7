package classify

import "github.com/gnana997/flowlens/pkg/model"

// returnShapes maps a hook name to the known classification of each variable
// in its return shape. Variables present in a known hook's shape but missing
// from the table default to data; unknown hook names fall through to the
// resolver/heuristic chain entirely.
var returnShapes = map[string]map[string]model.VarKind{
	// react-hook-form
	"useForm": {
		"register":     model.VarFunction,
		"handleSubmit": model.VarFunction,
		"watch":        model.VarFunction,
		"reset":        model.VarFunction,
		"setValue":     model.VarFunction,
		"getValues":    model.VarFunction,
		"setError":     model.VarFunction,
		"clearErrors":  model.VarFunction,
		"trigger":      model.VarFunction,
		"unregister":   model.VarFunction,
		"formState":    model.VarData,
		"control":      model.VarData,
		"errors":       model.VarData,
	},
	"useFieldArray": {
		"fields":  model.VarData,
		"append":  model.VarFunction,
		"prepend": model.VarFunction,
		"remove":  model.VarFunction,
		"swap":    model.VarFunction,
		"move":    model.VarFunction,
		"insert":  model.VarFunction,
	},

	// SWR
	"useSWR": {
		"data":         model.VarData,
		"error":        model.VarData,
		"isLoading":    model.VarData,
		"isValidating": model.VarData,
		"mutate":       model.VarFunction,
	},
	"useSWRMutation": {
		"data":       model.VarData,
		"error":      model.VarData,
		"isMutating": model.VarData,
		"trigger":    model.VarFunction,
		"reset":      model.VarFunction,
	},

	// TanStack Query
	"useQuery": {
		"data":       model.VarData,
		"error":      model.VarData,
		"isLoading":  model.VarData,
		"isError":    model.VarData,
		"isSuccess":  model.VarData,
		"isFetching": model.VarData,
		"status":     model.VarData,
		"refetch":    model.VarFunction,
	},
	"useMutation": {
		"data":        model.VarData,
		"error":       model.VarData,
		"isPending":   model.VarData,
		"isError":     model.VarData,
		"isSuccess":   model.VarData,
		"mutate":      model.VarFunction,
		"mutateAsync": model.VarFunction,
		"reset":       model.VarFunction,
	},

	// Apollo
	"useLazyQuery": {
		"data":    model.VarData,
		"loading": model.VarData,
		"error":   model.VarData,
		"called":  model.VarData,
	},
	"useApolloClient": {
		"client": model.VarData,
	},
}

// shapeFor returns the known return shape for a hook name, if any.
func shapeFor(hookName string) (map[string]model.VarKind, bool) {
	shape, ok := returnShapes[hookName]
	return shape, ok
}
