package parser

import (
	"github.com/gnana997/flowlens/pkg/util"
)

// getDefaultPoolSize sizes parser pools from the CPU count. It must match
// the worker pool size so workers never block waiting for a parser.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}
