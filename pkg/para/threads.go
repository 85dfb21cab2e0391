package para

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// ThreadCountEnv names the environment variable that overrides the number
// of CPU cores when choosing how many threads an executor uses.
const ThreadCountEnv = "STEREO_PARA_THREAD_COUNT"

var threadCount = sync.OnceValue(func() int {
	return resolveThreadCount(os.LookupEnv, runtime.NumCPU)
})

// ThreadCount returns the number of threads executors use by default. It
// is resolved on the first call and never changes afterwards; the result is
// always at least 1.
func ThreadCount() int {
	return threadCount()
}

// resolveThreadCount prefers a positive override from the environment and
// falls back to the CPU count.
func resolveThreadCount(lookup func(string) (string, bool), cpus func() int) int {
	if v, ok := lookup(ThreadCountEnv); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}

	if n := cpus(); n > 0 {
		return n
	}
	return 1
}
