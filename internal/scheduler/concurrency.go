package scheduler

import "runtime"

func numCPU() int {
	return runtime.NumCPU()
}
