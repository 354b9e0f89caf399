package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ImageExtensions are the background formats the loader can decode.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".pdf"}

// IsImage reports whether name has one of ImageExtensions.
func IsImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FindLatestImage returns the most recently modified image in dir.
func FindLatestImage(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsImage(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено изображений", dir)
	}

	return latestFile, nil
}

// Stats is a snapshot of resource usage for the performance report.
type Stats struct {
	ProcessRSS  uint64
	HostTotal   uint64
	HostUsedPct float64
}

// ReadStats samples the current process and host memory.
func ReadStats() (Stats, error) {
	var s Stats

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("process handle: %w", err)
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return s, fmt.Errorf("process memory: %w", err)
	}
	s.ProcessRSS = info.RSS

	vm, err := mem.VirtualMemory()
	if err != nil {
		return s, fmt.Errorf("host memory: %w", err)
	}
	s.HostTotal = vm.Total
	s.HostUsedPct = vm.UsedPercent
	return s, nil
}

func (s Stats) String() string {
	return fmt.Sprintf("RSS: %.1f MiB | Host: %.1f GiB, used %.1f%%",
		float64(s.ProcessRSS)/(1<<20), float64(s.HostTotal)/(1<<30), s.HostUsedPct)
}
