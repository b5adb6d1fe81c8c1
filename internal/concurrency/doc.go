// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pinned worker machinery behind the thread pool: the shared dispatch context
// (pending queue, completed list, condition variable) and streams of workers
// locked to OS threads and bound to their planned cores.
//
// All workers of all streams drain one FIFO queue. Streams only decide which
// threads exist and where they run, not which tasks they receive.
package concurrency
