// File: affinity/allocator.go
// Author: momentics <momentics@gmail.com>
//
// Core allocator: turns the host core set and the requested thread and stream
// counts into a concrete placement plan. Everything except BuildPlan and
// ResolveCores is a pure function of its arguments.

package affinity

import (
	"github.com/momentics/corepool/api"
)

// MaxThreads bounds the requested thread count.
const MaxThreads = 1000

// Allocator resolves plans against a host topology.
type Allocator struct {
	topo api.Topology
}

// NewAllocator returns an allocator backed by topo. A nil topo uses System().
func NewAllocator(topo api.Topology) *Allocator {
	if topo == nil {
		topo = System()
	}
	return &Allocator{topo: topo}
}

// ResolveCores returns the parallelism domain. With useAffinity the OS allowed
// set is used; an empty allowed set falls back to every discoverable core.
func (a *Allocator) ResolveCores(useAffinity bool) api.CoreSet {
	if useAffinity {
		if cores := a.topo.AllowedCores(); len(cores) > 0 {
			return api.NewCoreSet(cores...)
		}
	}
	return api.RangeCoreSet(a.topo.HardwareConcurrency())
}

// ResolveThreadCount validates requested. Zero means available; anything else
// is returned as is, including values above available.
func ResolveThreadCount(requested, available int) (int, error) {
	if requested < 0 || requested > MaxThreads {
		return 0, api.NewError(api.ErrCodeInvalidArgument, "thread count out of range").
			WithContext("threads", requested).
			WithContext("max", MaxThreads)
	}
	if requested == 0 {
		return available, nil
	}
	return requested, nil
}

// ResolveStreamCount returns requested, or sockets when requested is zero.
func ResolveStreamCount(requested, sockets int) (int, error) {
	if requested < 0 {
		return 0, api.NewError(api.ErrCodeInvalidArgument, "negative stream count").
			WithContext("streams", requested)
	}
	n := requested
	if n == 0 {
		n = sockets
	}
	if n <= 0 {
		return 0, api.NewError(api.ErrCodeInvalidArgument, "stream count must be positive").
			WithContext("streams", requested).
			WithContext("sockets", sockets)
	}
	return n, nil
}

// PartitionThreadsOverCores assigns cores to threads.
//
// threads <= cores: the first cores%threads threads get one extra core; every
// core is used exactly once, in CoreSet order.
//
// threads > cores: every thread gets one core; the first threads%cores cores
// carry one extra thread.
func PartitionThreadsOverCores(threads int, cores api.CoreSet) ([]ThreadPlan, error) {
	if threads < 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "negative thread count").
			WithContext("threads", threads)
	}
	if threads == 0 {
		return []ThreadPlan{}, nil
	}
	n := len(cores)
	if n == 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "no cores to place threads on").
			WithContext("threads", threads)
	}

	plans := make([]ThreadPlan, threads)
	if threads <= n {
		tail := n / threads
		head := tail + 1
		headThreads := n % threads

		idx := 0
		for t := 0; t < threads; t++ {
			size := tail
			if t < headThreads {
				size = head
			}
			plans[t] = append(ThreadPlan(nil), cores[idx:idx+size]...)
			idx += size
		}
		return plans, nil
	}

	tail := threads / n
	head := tail + 1
	headThreads := (threads % n) * head

	core := 0
	for t := 0; t < headThreads; t++ {
		plans[t] = ThreadPlan{cores[core]}
		if t%head == head-1 {
			core++
		}
	}
	for t := headThreads; t < threads; t++ {
		plans[t] = ThreadPlan{cores[core]}
		if (t-headThreads)%tail == tail-1 {
			core++
		}
	}
	return plans, nil
}

// PartitionThreadsOverStreams splits plans into streams contiguous groups of
// len(plans)/streams threads. The remainder goes to the last stream, unlike
// the head-loaded core split above.
func PartitionThreadsOverStreams(streams int, plans []ThreadPlan) (StreamPlan, error) {
	if streams <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "stream count must be positive").
			WithContext("streams", streams)
	}
	per := len(plans) / streams
	sp := make(StreamPlan, streams)
	for i := 0; i < streams; i++ {
		sp[i] = append([]ThreadPlan{}, plans[i*per:(i+1)*per]...)
	}
	sp[streams-1] = append(sp[streams-1], plans[streams*per:]...)
	return sp, nil
}

// BuildPlan resolves cores, thread and stream counts and partitions them.
// The socket query only runs when streams is zero.
func (a *Allocator) BuildPlan(streams, threads int, useAffinity bool) (StreamPlan, error) {
	cores := a.ResolveCores(useAffinity)
	threadNum, err := ResolveThreadCount(threads, len(cores))
	if err != nil {
		return nil, err
	}

	sockets := 0
	if streams == 0 {
		if sockets, err = a.topo.Sockets(); err != nil {
			return nil, err
		}
	}
	streamNum, err := ResolveStreamCount(streams, sockets)
	if err != nil {
		return nil, err
	}

	plans, err := PartitionThreadsOverCores(threadNum, cores)
	if err != nil {
		return nil, err
	}
	return PartitionThreadsOverStreams(streamNum, plans)
}
