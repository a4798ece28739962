package system

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// RaiseFileLimit bumps RLIMIT_NOFILE when the default soft limit would be too
// tight for running every capture at once (each child holds a pty plus a pipe
// pair, and the capture tools open plenty of their own).
func RaiseFileLimit(captures int) {
	var rl syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		log.Printf("[!] Could not read open file limit: %v", err)
		return
	}

	need := uint64(64 + 16*captures)
	if rl.Cur >= need {
		return
	}

	rl.Cur = need
	if rl.Cur > rl.Max {
		rl.Cur = rl.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		log.Printf("[!] Could not raise open file limit: %v", err)
		return
	}
	fmt.Printf("[*] Open file limit raised to %d\n", rl.Cur)
}

// Stats is a point-in-time resource snapshot of this process.
type Stats struct {
	CPUSeconds float64
	RSSBytes   uint64
}

func Snapshot() (*Stats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	times, err := p.Times()
	if err != nil {
		return nil, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return nil, err
	}

	return &Stats{
		CPUSeconds: times.User + times.System,
		RSSBytes:   mem.RSS,
	}, nil
}
