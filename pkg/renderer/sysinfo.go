package renderer

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// SystemInfo describes the host a render runs on
type SystemInfo struct {
	CPUModel     string
	LogicalCores int
	TotalRAM     uint64 // bytes
	AvailableRAM uint64 // bytes
}

// DefaultWorkerCount returns the number of logical cores, falling back to the Go runtime's view
func DefaultWorkerCount() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		return runtime.NumCPU()
	}
	return count
}

// GetSystemInfo queries CPU and memory details of the host
func GetSystemInfo() (SystemInfo, error) {
	info := SystemInfo{LogicalCores: DefaultWorkerCount()}

	cpuInfo, err := cpu.Info()
	if err != nil {
		return info, fmt.Errorf("reading cpu info: %w", err)
	}
	if len(cpuInfo) > 0 {
		info.CPUModel = cpuInfo[0].ModelName
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return info, fmt.Errorf("reading memory info: %w", err)
	}
	info.TotalRAM = memInfo.Total
	info.AvailableRAM = memInfo.Available

	return info, nil
}

// EstimateBufferBytes returns the memory held by count accumulation buffers of the given size
func EstimateBufferBytes(width, height, count int) uint64 {
	const vec3Bytes = 24
	return uint64(width) * uint64(height) * uint64(count) * vec3Bytes
}
