package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name string
		want Category
		ok   bool
	}{
		{"net", CategoryNet, true},
		{"io", CategoryIO, true},
		{"cpu", CategoryCPU, true},
		{"mem", CategoryMem, true},
		{"threads", CategoryThreads, true},
		{"thread_io", "", false},
		{"NET", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCategory(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCategorySet_EnabledOrder(t *testing.T) {
	s := CategorySet{
		CategoryThreads: true,
		CategoryNet:     true,
		CategoryCPU:     false,
		CategoryMem:     true,
	}
	assert.Equal(t, []Category{CategoryNet, CategoryMem, CategoryThreads}, s.Enabled())
	assert.Equal(t, []string{"net", "mem", "threads"}, s.Strings())
	assert.False(t, s.Empty())
	assert.True(t, CategorySet{CategoryIO: false}.Empty())
}

func TestCategorySet_Unknown(t *testing.T) {
	s := CategorySet{CategoryNet: true, "disk": true, "gpu": false, CategoryIO: false}
	assert.Equal(t, []string{"disk", "gpu"}, s.Unknown())
	assert.Empty(t, NewCategorySet(AllCategories()...).Unknown())
}

func TestResult_MarshalOmitsUncollected(t *testing.T) {
	r := Result{
		Net: []Connection{},
		CPU: &CPUInfo{Percent: 1.5, User: 0.25, System: 0.5},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
	assert.JSONEq(t, `[]`, string(raw["net"]))
	assert.JSONEq(t, `{"cpu_pcnt":1.5,"cpu_user":0.25,"cpu_sys":0.5}`, string(raw["cpu"]))
}

func TestResult_Categories(t *testing.T) {
	var r Result
	require.NoError(t, json.Unmarshal([]byte(`{"threads":{"12":{"sys":0.1,"user":0.2}},"io":{"read_bytes":1}}`), &r))

	assert.Equal(t, []Category{CategoryIO, CategoryThreads}, r.Categories())
	assert.Equal(t, ThreadTimes{System: 0.1, User: 0.2}, r.Threads[12])

	fields := r.Fields()
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "io")
	assert.Contains(t, fields, "threads")
}
