// Package pool
// Author: momentics <momentics@gmail.com>
//
// Package pool provides ThreadPool, a fixed-size pool of CPU-pinned workers
// grouped into streams and fed from a single FIFO queue.
//
// Placement is decided once at construction: the usable cores are split
// across threads (extra cores go to the first threads), and threads are split
// across streams (extra threads go to the last stream). Every worker runs on
// its own OS thread for its whole life.
//
// Waiting is by busy polling. WaitAll only waits for the queue to drain;
// tasks taken by workers just before it returns may still be running.
package pool
