package services

import "errors"

// Terminal failure: the optimizer exhausted its budget without finding a
// feasible assignment. No partial route is fabricated; the caller receives
// this error instead of a result.
var ErrNoFeasibleRoute = errors.New("no feasible route")
