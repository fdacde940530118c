package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/pkg/log"
)

// GetCPUNum 返回主机逻辑 CPU 核心数，探测失败时回退到 runtime.NumCPU。
func GetCPUNum() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn("failed to detect cpu count, fallback to runtime", zap.Error(err))
		return runtime.NumCPU()
	}
	return n
}

// GetMemoryCount 返回主机物理内存总量（字节），探测失败时返回 0。
func GetMemoryCount() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to detect memory size", zap.Error(err))
		return 0
	}
	return stats.Total
}

// GetFreeMemoryCount 返回当前可用内存（字节），探测失败时返回 0。
func GetFreeMemoryCount() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to detect available memory", zap.Error(err))
		return 0
	}
	return stats.Available
}
