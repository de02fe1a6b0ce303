package collector

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/HerbHall/procinfo/pkg/models"
)

// WorkerEnv marks a process as a collection worker when set to "1".
const WorkerEnv = "PROCINFO_WORKER"

// workerRequest is what the parent passes to the worker on its command line.
type workerRequest struct {
	PID        int32
	Categories models.CategorySet
}

// encodeArgs renders one --pid flag and one boolean flag per category.
func encodeArgs(req workerRequest) []string {
	args := []string{"--pid=" + strconv.FormatInt(int64(req.PID), 10)}
	for _, c := range models.AllCategories() {
		args = append(args, fmt.Sprintf("--%s=%t", c, req.Categories.Has(c)))
	}
	return args
}

func parseArgs(args []string) (workerRequest, error) {
	fs := pflag.NewFlagSet("procinfo-worker", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})

	pid := fs.Int32("pid", 0, "target process id")
	flags := make(map[models.Category]*bool)
	for _, c := range models.AllCategories() {
		flags[c] = fs.Bool(string(c), false, "collect "+string(c))
	}
	if err := fs.Parse(args); err != nil {
		return workerRequest{}, fmt.Errorf("%w: %v", ErrWorkerUsage, err)
	}
	if fs.NArg() > 0 {
		return workerRequest{}, fmt.Errorf("%w: unexpected arguments %v", ErrWorkerUsage, fs.Args())
	}
	if *pid <= 0 {
		return workerRequest{}, fmt.Errorf("%w: --pid must be positive", ErrWorkerUsage)
	}

	req := workerRequest{PID: *pid, Categories: models.CategorySet{}}
	for c, on := range flags {
		if *on {
			req.Categories[c] = true
		}
	}
	return req, nil
}

// failureRecord is the shape of the worker's structured failure log line.
type failureRecord struct {
	Msg      string `json:"msg"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// parseFailure returns the last failure record found on the worker's stderr.
func parseFailure(stderr []byte) (failureRecord, bool) {
	var (
		found bool
		last  failureRecord
	)
	sc := bufio.NewScanner(bytes.NewReader(stderr))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var rec failureRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Kind != "" {
			last, found = rec, true
		}
	}
	return last, found
}

// decodeResult validates and decodes the worker's stdout.
func decodeResult(out []byte, requested models.CategorySet) (*models.Result, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: ErrEmptyOutput}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &DecodeError{Output: string(trimmed), Err: err}
	}
	for key := range raw {
		c, ok := models.ParseCategory(key)
		if !ok || !requested.Has(c) {
			return nil, &DecodeError{Output: string(trimmed), Err: fmt.Errorf("%w: %q", ErrUnexpectedCategory, key)}
		}
	}

	var result models.Result
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, &DecodeError{Output: string(trimmed), Err: err}
	}
	return &result, nil
}
