package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo describes a running process.
type ProcessInfo struct {
	PID  int32
	Name string
	Exe  string
}

// ProcessTable lists and stops processes.
type ProcessTable interface {
	List(ctx context.Context) ([]ProcessInfo, error)
	Terminate(ctx context.Context, pid int32) error
}

// SystemProcesses is the ProcessTable backed by the live system.
type SystemProcesses struct{}

// List implements ProcessTable. Processes that vanish or deny inspection
// while being listed are skipped.
func (SystemProcesses) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		exe, _ := p.ExeWithContext(ctx)
		infos = append(infos, ProcessInfo{PID: p.Pid, Name: name, Exe: exe})
	}
	return infos, nil
}

// Terminate implements ProcessTable by sending SIGTERM.
func (SystemProcesses) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.TerminateWithContext(ctx)
}

// ProcessesInBundle returns the processes whose executable lives inside
// bundlePath.
func ProcessesInBundle(procs []ProcessInfo, bundlePath string) []ProcessInfo {
	prefix := strings.TrimSuffix(bundlePath, "/") + "/"
	var matched []ProcessInfo
	for _, p := range procs {
		if strings.HasPrefix(p.Exe, prefix) {
			matched = append(matched, p)
		}
	}
	return matched
}

// StaticProcesses is a fixed ProcessTable for tests.
type StaticProcesses struct {
	Procs      []ProcessInfo
	Terminated []int32
}

// List implements ProcessTable.
func (s *StaticProcesses) List(context.Context) ([]ProcessInfo, error) {
	return append([]ProcessInfo(nil), s.Procs...), nil
}

// Terminate implements ProcessTable.
func (s *StaticProcesses) Terminate(_ context.Context, pid int32) error {
	s.Terminated = append(s.Terminated, pid)
	return nil
}
