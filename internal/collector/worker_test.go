package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/procinfo/internal/inspector"
	"github.com/HerbHall/procinfo/pkg/models"
)

func TestEncodeArgs(t *testing.T) {
	args := encodeArgs(workerRequest{
		PID:        4242,
		Categories: models.NewCategorySet(models.CategoryNet, models.CategoryThreads),
	})
	assert.Equal(t, []string{
		"--pid=4242",
		"--net=true",
		"--io=false",
		"--cpu=false",
		"--mem=false",
		"--threads=true",
	}, args)

	req, err := parseArgs(args)
	require.NoError(t, err)
	assert.Equal(t, int32(4242), req.PID)
	assert.Equal(t, []models.Category{models.CategoryNet, models.CategoryThreads}, req.Categories.Enabled())
}

func TestParseArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing pid", []string{"--net=true"}},
		{"negative pid", []string{"--pid=-3"}},
		{"unknown flag", []string{"--pid=10", "--disk=true"}},
		{"not a bool", []string{"--pid=10", "--net=maybe"}},
		{"positional", []string{"--pid=10", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			assert.ErrorIs(t, err, ErrWorkerUsage)
		})
	}
}

func TestRunWorker_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunWorker(context.Background(), []string{"--bogus"}, &stdout, &stderr)

	assert.Equal(t, ExitUsage, code)
	assert.Zero(t, stdout.Len())
	rec, ok := parseFailure(stderr.Bytes())
	require.True(t, ok, "stderr: %s", stderr.String())
	assert.Equal(t, string(KindUsage), rec.Kind)
}

func TestRunWorker_SelfInspection(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"--pid=" + strconv.Itoa(os.Getpid()), "--net=true"}
	code := RunWorker(context.Background(), args, &stdout, &stderr)

	assert.Equal(t, ExitSelfInspection, code)
	assert.Zero(t, stdout.Len())
	rec, ok := parseFailure(stderr.Bytes())
	require.True(t, ok)
	assert.Equal(t, string(KindSelfInspection), rec.Kind)
	assert.Equal(t, "net", rec.Category)
}

func TestRunWorker_ParentProcess(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"--pid=" + strconv.Itoa(os.Getppid()), "--net=true"}
	code := RunWorker(context.Background(), args, &stdout, &stderr)
	require.Equal(t, ExitOK, code, "stderr: %s", stderr.String())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &raw))
	assert.Len(t, raw, 1)
	assert.Contains(t, raw, "net")
}

func TestParseFailure(t *testing.T) {
	stderr := []byte(`{"level":"warn","msg":"category omitted","category":"threads"}
plain text noise
{"level":"error","msg":"collection failed","kind":"permission","category":"mem","error":"mem: elevated permission required"}
`)
	rec, ok := parseFailure(stderr)
	require.True(t, ok)
	assert.Equal(t, "permission", rec.Kind)
	assert.Equal(t, "mem", rec.Category)
	assert.Equal(t, "mem: elevated permission required", rec.Error)

	_, ok = parseFailure([]byte("panic: runtime error\n"))
	assert.False(t, ok)
}

func TestDecodeResult(t *testing.T) {
	requested := models.NewCategorySet(models.CategoryNet, models.CategoryMem)
	tests := []struct {
		name    string
		out     string
		wantErr error
	}{
		{"valid", `{"net":[],"mem":{"pcnt":0.5,"rss":1024,"vms":0.1}}`, nil},
		{"subset", `{"mem":{"pcnt":0.5,"rss":1024,"vms":0.1}}`, nil},
		{"whitespace only", " \n", ErrEmptyOutput},
		{"unrequested", `{"io":{"read_bytes":1}}`, ErrUnexpectedCategory},
		{"unknown key", `{"disk":{}}`, ErrUnexpectedCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeResult([]byte(tt.out), requested)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := decodeResult([]byte(`{"net":`), requested)
	var de *DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		wantKind FailureKind
		wantCode int
	}{
		{inspector.GateError(models.CategoryIO), KindUnsupportedPlatform, ExitUnsupportedPlatform},
		{inspector.GateError(models.CategoryCPU), KindPermission, ExitPermission},
		{fmt.Errorf("pid 1: %w", inspector.ErrSelfInspection), KindSelfInspection, ExitSelfInspection},
		{inspector.ErrNoSuchProcess, KindNoSuchProcess, ExitNoSuchProcess},
		{ErrWorkerUsage, KindUsage, ExitUsage},
		{errors.New("boom"), KindInternal, ExitInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantKind), func(t *testing.T) {
			kind, code := classify(tt.err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWorkerExitError_Unwrap(t *testing.T) {
	err := &WorkerExitError{ExitCode: ExitPermission, Kind: KindPermission, Category: models.CategoryMem, Message: "mem: elevated permission required"}
	assert.ErrorIs(t, err, inspector.ErrPermission)
	assert.NotErrorIs(t, err, inspector.ErrUnsupportedPlatform)
	assert.Equal(t, "worker exited with code 4 (permission, category mem): mem: elevated permission required", err.Error())
}
