// Package clock exposes the wall clock behind an overridable function so that
// throttling behaviour can be pinned down in tests.
package clock

import "time"

// NowFunc supplies the current time. Tests replace it for determinism.
var NowFunc = time.Now

// Now returns the current time via NowFunc.
func Now() time.Time { return NowFunc() }
