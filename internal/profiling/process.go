package profiling

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a coarse view of the running process.
type Stats struct {
	RSSBytes   uint64
	CPUPercent float64
	Threads    int32
}

// ProcessStats samples the current process. CPU usage is averaged since
// process start.
func ProcessStats() (Stats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Stats{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return Stats{}, err
	}
	threads, err := p.NumThreads()
	if err != nil {
		return Stats{}, err
	}
	return Stats{RSSBytes: mem.RSS, CPUPercent: cpu, Threads: threads}, nil
}
