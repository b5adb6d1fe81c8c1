// Package api
// Author: momentics@gmail.com
//
// CPU topology queries and thread binding contracts.

package api

import (
	"slices"
	"strconv"
	"strings"
)

// CoreID identifies one logical CPU as reported by the OS.
type CoreID = int

// CoreSet is an ordered, deduplicated list of logical CPUs.
type CoreSet []CoreID

// NewCoreSet sorts and deduplicates ids. Negative ids are dropped.
func NewCoreSet(ids ...CoreID) CoreSet {
	out := make(CoreSet, 0, len(ids))
	for _, id := range ids {
		if id >= 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// RangeCoreSet returns [0, n).
func RangeCoreSet(n int) CoreSet {
	out := make(CoreSet, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, i)
	}
	return out
}

// Len returns the number of cores in the set.
func (cs CoreSet) Len() int { return len(cs) }

// Contains reports whether id is part of the set.
func (cs CoreSet) Contains(id CoreID) bool {
	_, ok := slices.BinarySearch(cs, id)
	return ok
}

// String renders the set as "[0,1,2]".
func (cs CoreSet) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range cs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteByte(']')
	return b.String()
}

// Topology answers the questions the core allocator needs about the host.
type Topology interface {
	// AllowedCores returns the cores the process may run on.
	// An empty set means the query failed and no restriction is known.
	AllowedCores() CoreSet
	// HardwareConcurrency returns the number of logical CPUs.
	HardwareConcurrency() int
	// Sockets returns the number of physical CPU packages.
	Sockets() (int, error)
}

// Binder pins the calling OS thread to a set of cores.
// Callers must hold runtime.LockOSThread for the binding to stick.
type Binder interface {
	BindCurrentThread(cores CoreSet) error
}
