// Package api
// Author: momentics
//
// Unit-of-work contract for pool dispatch.

package api

// Processor is the capability a unit of work provides. Process carries no
// arguments and no result; outcomes are communicated through the implementation.
type Processor interface {
	Process()
}
