// Package natives implements Lox's small native-function library:
// built-ins exposed as globals that the VM calls through the same OpCall
// path as any Lox closure.
package natives

import (
	"fmt"
	"time"

	"github.com/kristofer/loxvm/pkg/value"
)

// Install registers every native function into define, the VM's
// global-definition hook. start is the VM's startup instant, so clock()
// reports elapsed seconds rather than wall-clock epoch time, suited to
// benchmarking loop bodies rather than telling time.
func Install(define func(name string, fn value.NativeFn), start time.Time) {
	define("clock", clockNative(start))
	define("str", strNative)
}

func clockNative(start time.Time) value.NativeFn {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return value.Nil, fmt.Errorf("clock() takes no arguments")
		}
		return value.Number(time.Since(start).Seconds()), nil
	}
}

// strNative stringifies any value the way print would render it, without
// a trailing newline — useful for building strings out of non-string
// values, e.g. `"count: " + str(n)`.
func strNative(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("str() takes exactly one argument")
	}
	return value.FromObj(&value.ObjString{Chars: args[0].String()}), nil
}
