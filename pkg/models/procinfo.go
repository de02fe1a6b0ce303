package models

import (
	"sort"

	json "github.com/goccy/go-json"
)

// Category names one group of per-process metrics.
type Category string

const (
	CategoryNet     Category = "net"
	CategoryIO      Category = "io"
	CategoryCPU     Category = "cpu"
	CategoryMem     Category = "mem"
	CategoryThreads Category = "threads"
)

// collectionOrder is the fixed order categories are gathered in.
var collectionOrder = []Category{
	CategoryNet,
	CategoryIO,
	CategoryCPU,
	CategoryMem,
	CategoryThreads,
}

// AllCategories returns every valid category in collection order.
func AllCategories() []Category {
	out := make([]Category, len(collectionOrder))
	copy(out, collectionOrder)
	return out
}

// ParseCategory reports whether name is a recognized category.
func ParseCategory(name string) (Category, bool) {
	for _, c := range collectionOrder {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

func (c Category) rank() int {
	for i, o := range collectionOrder {
		if o == c {
			return i
		}
	}
	return len(collectionOrder)
}

// CategorySet maps a category to whether it is requested.
type CategorySet map[Category]bool

// NewCategorySet returns a set with the given categories requested.
func NewCategorySet(cats ...Category) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		s[c] = true
	}
	return s
}

// Has reports whether c is requested.
func (s CategorySet) Has(c Category) bool {
	return s[c]
}

// Enabled returns the requested categories in collection order.
func (s CategorySet) Enabled() []Category {
	out := make([]Category, 0, len(s))
	for c, on := range s {
		if on {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank() < out[j].rank() })
	return out
}

// Unknown returns the keys of s that name no category, sorted. Their values
// are not consulted.
func (s CategorySet) Unknown() []string {
	var out []string
	for c := range s {
		if _, ok := ParseCategory(string(c)); !ok {
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

// Empty reports whether no category is requested.
func (s CategorySet) Empty() bool {
	return len(s.Enabled()) == 0
}

// Strings returns the requested category names in collection order.
func (s CategorySet) Strings() []string {
	enabled := s.Enabled()
	out := make([]string, len(enabled))
	for i, c := range enabled {
		out[i] = string(c)
	}
	return out
}

// Socket kinds reported in a Connection.
const (
	SocketTCP  = "TCP"
	SocketUDP  = "UDP"
	SocketUNIX = "UNIX"
)

// RemoteWildcard is reported when a socket has no remote endpoint.
const RemoteWildcard = "*:*"

// Connection describes one open socket owned by the inspected process.
type Connection struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// IOCounters holds the per-process I/O accounting counters.
type IOCounters struct {
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
	ReadCount  uint64 `json:"read_count"`
	WriteCount uint64 `json:"write_count"`
}

// CPUInfo holds CPU utilization over the sampling interval plus cumulative times.
type CPUInfo struct {
	Percent float64 `json:"cpu_pcnt"`
	User    float64 `json:"cpu_user"`
	System  float64 `json:"cpu_sys"`
}

// MemoryInfo holds memory usage of the inspected process.
//
// VMS carries the process's cumulative system CPU time, not its virtual
// memory size. Consumers of the procinfo field-group depend on this value.
type MemoryInfo struct {
	Percent float64 `json:"pcnt"`
	RSS     uint64  `json:"rss"`
	VMS     float64 `json:"vms"`
}

// ThreadTimes holds the CPU times of a single thread.
type ThreadTimes struct {
	System float64 `json:"sys"`
	User   float64 `json:"user"`
}

// Result is the payload of one collection. A nil field means the category
// was not collected; a non-nil empty field means it was collected and empty.
type Result struct {
	Net     []Connection          `json:"net,omitempty"`
	IO      *IOCounters           `json:"io,omitempty"`
	CPU     *CPUInfo              `json:"cpu,omitempty"`
	Mem     *MemoryInfo           `json:"mem,omitempty"`
	Threads map[int32]ThreadTimes `json:"threads,omitempty"`
}

// resultWire keeps empty-but-collected slices and maps on the wire.
type resultWire struct {
	Net     *[]Connection          `json:"net,omitempty"`
	IO      *IOCounters            `json:"io,omitempty"`
	CPU     *CPUInfo               `json:"cpu,omitempty"`
	Mem     *MemoryInfo            `json:"mem,omitempty"`
	Threads *map[int32]ThreadTimes `json:"threads,omitempty"`
}

// MarshalJSON encodes only collected categories.
func (r Result) MarshalJSON() ([]byte, error) {
	w := resultWire{IO: r.IO, CPU: r.CPU, Mem: r.Mem}
	if r.Net != nil {
		w.Net = &r.Net
	}
	if r.Threads != nil {
		w.Threads = &r.Threads
	}
	return json.Marshal(w)
}

// Categories returns the categories present in the result, in collection order.
func (r *Result) Categories() []Category {
	s := CategorySet{}
	if r.Net != nil {
		s[CategoryNet] = true
	}
	if r.IO != nil {
		s[CategoryIO] = true
	}
	if r.CPU != nil {
		s[CategoryCPU] = true
	}
	if r.Mem != nil {
		s[CategoryMem] = true
	}
	if r.Threads != nil {
		s[CategoryThreads] = true
	}
	return s.Enabled()
}

// Fields flattens the result into a field-name to value mapping for a
// logging client. Only collected categories are present.
func (r *Result) Fields() map[string]any {
	fields := make(map[string]any, 5)
	if r.Net != nil {
		fields[string(CategoryNet)] = r.Net
	}
	if r.IO != nil {
		fields[string(CategoryIO)] = r.IO
	}
	if r.CPU != nil {
		fields[string(CategoryCPU)] = r.CPU
	}
	if r.Mem != nil {
		fields[string(CategoryMem)] = r.Mem
	}
	if r.Threads != nil {
		fields[string(CategoryThreads)] = r.Threads
	}
	return fields
}
