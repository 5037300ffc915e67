// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"fmt"

	"github.com/go-logr/logr"
)

// FatalFunc receives invariant violations: states that must be unreachable,
// such as an effect-completed signal with no effect pending, or an effect
// interrupted while its store is still open.
//
// keysAndValues follow the logr convention.
type FatalFunc func(msg string, keysAndValues ...any)

// Panic is the default FatalFunc. It fails fast.
func Panic(msg string, keysAndValues ...any) {
	if len(keysAndValues) == 0 {
		panic("store: " + msg)
	}
	panic(fmt.Sprintf("store: %s %v", msg, keysAndValues))
}

// LogAndContinue returns a FatalFunc that reports the violation on logger
// and lets the caller fall through to its recovery path.
func LogAndContinue(logger logr.Logger) FatalFunc {
	return func(msg string, keysAndValues ...any) {
		logger.Error(nil, "invariant violated: "+msg, keysAndValues...)
	}
}
