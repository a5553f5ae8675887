package ffmpeg

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Thresholds below which heavy ffmpeg runs are refused. A zero value turns
// the corresponding check off.
type Thresholds struct {
	IdleCPU  float64
	FreeMem  int64
	FreeDisk int64
}

// checkResources verifies that the host has room for another encode.
func (t *Toolchain) checkResources(dir string) error {
	if t.limits.IdleCPU > 0 {
		p, err := cpu.Percent(time.Second, false)
		if err != nil {
			t.log.WithError(err).Warn("could not get CPU usage")
		} else if len(p) > 0 && p[0] > 100.0-t.limits.IdleCPU {
			return fmt.Errorf("not enough idle CPU: usage %.2f%%, idle threshold %.2f%%", p[0], t.limits.IdleCPU)
		}
	}

	if t.limits.FreeMem > 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			t.log.WithError(err).Warn("could not get memory usage")
		} else if vm.Available < uint64(t.limits.FreeMem) {
			return fmt.Errorf("not enough free memory: available %d, required %d", vm.Available, t.limits.FreeMem)
		}
	}

	if t.limits.FreeDisk > 0 {
		d, err := disk.Usage(dir)
		if err != nil {
			t.log.WithError(err).WithField("dir", dir).Warn("could not get disk usage")
		} else if d.Free < uint64(t.limits.FreeDisk) {
			return fmt.Errorf("not enough free disk space: available %d, required %d", d.Free, t.limits.FreeDisk)
		}
	}
	return nil
}
