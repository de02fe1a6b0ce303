// Package inspector reads OS metrics of another process by PID.
package inspector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/HerbHall/procinfo/internal/capability"
	"github.com/HerbHall/procinfo/pkg/models"
)

// PollInterval is the CPU sampling window used by CPUInfo.
const PollInterval = time.Second

// Inspector exposes one read operation per metric category for a single
// target process. It must only be used from outside the target process.
type Inspector struct {
	pid   int32
	flags capability.Flags
	proc  *process.Process
}

// New returns an Inspector bound to pid. The OS handle is resolved on first use.
func New(pid int32, flags capability.Flags) *Inspector {
	return &Inspector{pid: pid, flags: flags}
}

// PID returns the target process ID.
func (i *Inspector) PID() int32 {
	return i.pid
}

// Supports reports whether category c can be collected. Callers check it
// before invoking the matching operation.
func (i *Inspector) Supports(c models.Category) bool {
	return i.flags.Allows(c)
}

func (i *Inspector) process(ctx context.Context) (*process.Process, error) {
	if i.proc != nil {
		return i.proc, nil
	}
	if int(i.pid) == os.Getpid() {
		return nil, fmt.Errorf("pid %d: %w", i.pid, ErrSelfInspection)
	}
	p, err := process.NewProcessWithContext(ctx, i.pid)
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w: %v", i.pid, ErrNoSuchProcess, err)
	}
	i.proc = p
	return p, nil
}

// Connections lists the internet sockets owned by the target process.
func (i *Inspector) Connections(ctx context.Context) ([]models.Connection, error) {
	if _, err := i.process(ctx); err != nil {
		return nil, &CategoryError{Category: models.CategoryNet, Err: err}
	}
	stats, err := gnet.ConnectionsPidWithContext(ctx, "inet", i.pid)
	if err != nil {
		return nil, mapError(models.CategoryNet, err)
	}
	conns := make([]models.Connection, 0, len(stats))
	for _, s := range stats {
		conns = append(conns, toConnection(s))
	}
	return conns, nil
}

// IOCounters returns the target's I/O accounting counters.
func (i *Inspector) IOCounters(ctx context.Context) (*models.IOCounters, error) {
	if !i.Supports(models.CategoryIO) {
		return nil, GateError(models.CategoryIO)
	}
	p, err := i.process(ctx)
	if err != nil {
		return nil, &CategoryError{Category: models.CategoryIO, Err: err}
	}
	io, err := p.IOCountersWithContext(ctx)
	if err != nil {
		return nil, mapError(models.CategoryIO, err)
	}
	return &models.IOCounters{
		ReadBytes:  io.ReadBytes,
		WriteBytes: io.WriteBytes,
		ReadCount:  io.ReadCount,
		WriteCount: io.WriteCount,
	}, nil
}

// MemoryInfo returns memory usage of the target. VMS is filled from the
// system CPU time, matching what procinfo consumers have always received.
func (i *Inspector) MemoryInfo(ctx context.Context) (*models.MemoryInfo, error) {
	if !i.Supports(models.CategoryMem) {
		return nil, GateError(models.CategoryMem)
	}
	p, err := i.process(ctx)
	if err != nil {
		return nil, &CategoryError{Category: models.CategoryMem, Err: err}
	}
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return nil, mapError(models.CategoryMem, err)
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return nil, mapError(models.CategoryMem, err)
	}
	pcnt, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return nil, mapError(models.CategoryMem, err)
	}
	// TODO: report mem.VMS once downstream dashboards stop reading vms as system CPU time.
	return &models.MemoryInfo{
		Percent: float64(pcnt),
		RSS:     mem.RSS,
		VMS:     times.System,
	}, nil
}

// CPUInfo returns CPU utilization measured over PollInterval plus the
// cumulative user and system times. It blocks for PollInterval.
func (i *Inspector) CPUInfo(ctx context.Context) (*models.CPUInfo, error) {
	if !i.Supports(models.CategoryCPU) {
		return nil, GateError(models.CategoryCPU)
	}
	p, err := i.process(ctx)
	if err != nil {
		return nil, &CategoryError{Category: models.CategoryCPU, Err: err}
	}
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return nil, mapError(models.CategoryCPU, err)
	}
	pcnt, err := p.PercentWithContext(ctx, PollInterval)
	if err != nil {
		return nil, mapError(models.CategoryCPU, err)
	}
	return &models.CPUInfo{
		Percent: pcnt,
		User:    times.User,
		System:  times.System,
	}, nil
}

// ThreadCPUInfo returns the CPU times of every thread of the target.
func (i *Inspector) ThreadCPUInfo(ctx context.Context) (map[int32]models.ThreadTimes, error) {
	if !i.Supports(models.CategoryThreads) {
		return nil, GateError(models.CategoryThreads)
	}
	p, err := i.process(ctx)
	if err != nil {
		return nil, &CategoryError{Category: models.CategoryThreads, Err: err}
	}
	threads, err := p.ThreadsWithContext(ctx)
	if err != nil {
		return nil, mapError(models.CategoryThreads, err)
	}
	out := make(map[int32]models.ThreadTimes, len(threads))
	for tid, t := range threads {
		if t == nil {
			continue
		}
		out[tid] = models.ThreadTimes{System: t.System, User: t.User}
	}
	return out, nil
}

func toConnection(s gnet.ConnectionStat) models.Connection {
	conn := models.Connection{
		Type:   socketKind(s.Type),
		Status: s.Status,
		Local:  formatAddr(s.Laddr),
		Remote: models.RemoteWildcard,
	}
	if s.Raddr.IP != "" && s.Raddr.Port != 0 {
		conn.Remote = formatAddr(s.Raddr)
	}
	return conn
}

func socketKind(t uint32) string {
	switch t {
	case syscall.SOCK_STREAM:
		return models.SocketTCP
	case syscall.SOCK_DGRAM:
		return models.SocketUDP
	default:
		return models.SocketUNIX
	}
}

// formatAddr renders ip:port without bracketing IPv6 literals.
func formatAddr(a gnet.Addr) string {
	return a.IP + ":" + strconv.FormatUint(uint64(a.Port), 10)
}
