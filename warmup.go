package leakbench

import "runtime"

// cacheFlushSize should exceed the last-level cache of the measurement
// machine. 10MB covers common desktop CPUs; tune for bigger caches.
const cacheFlushSize = 10 * 1024 * 1024

// FlushCache touches a throwaway buffer larger than the CPU cache so the
// first target invocation starts cold. Without it the first secret in a
// batch is measured against a warm cache and the rest against whatever the
// previous computation left behind.
func FlushCache() {
	buf := make([]byte, cacheFlushSize)
	for i := range buf {
		buf[i] = byte(i)
	}
	runtime.KeepAlive(buf)
}
