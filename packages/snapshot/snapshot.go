// Package snapshot records response status and body next to a collection and
// compares later responses against them.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitpost/packages/assertions"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

const (
	// SnapshotDir is the directory name for storing snapshots
	SnapshotDir = "__snapshots__"
	// SnapshotExt is the file extension for snapshot files
	SnapshotExt = ".snap.json"
)

// FilePath returns the snapshot file kept beside collectionPath.
func FilePath(collectionPath string) string {
	dir := filepath.Dir(collectionPath)
	base := filepath.Base(collectionPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, SnapshotDir, name+SnapshotExt)
}

// Manager handles snapshot storage and comparison for one snapshot file.
type Manager struct {
	path   string
	update bool
	ignore []string

	mu        sync.Mutex
	snapshots map[string]any
}

// Option configures a Manager.
type Option func(*Manager)

// WithUpdate makes Compare write missing or mismatching snapshots.
func WithUpdate(update bool) Option {
	return func(m *Manager) {
		m.update = update
	}
}

// WithIgnore drops the given dot paths from JSON bodies before comparing,
// e.g. "id" or "meta.requestId".
func WithIgnore(paths ...string) Option {
	return func(m *Manager) {
		m.ignore = append(m.ignore, paths...)
	}
}

// NewManager creates a manager for the snapshot file at path.
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{path: path}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Result represents the result of a snapshot comparison.
type Result struct {
	Key      string
	Passed   bool
	Message  string
	Expected any
	Actual   any
	IsNew    bool
	Updated  bool
}

// Assertion reports the comparison in the shape of an assertion result.
func (r *Result) Assertion() *assertions.Result {
	msg := r.Message
	if msg == "" && r.Passed {
		msg = "snapshot matches"
	}
	return &assertions.Result{
		Passed:   r.Passed,
		Message:  msg,
		Expected: r.Expected,
		Actual:   r.Actual,
		Subject:  "snapshot " + r.Key,
		Operator: "matches",
	}
}

// Capture reduces resp to the value stored in a snapshot: the status and the
// body, decoded when it is JSON.
func (m *Manager) Capture(resp *http.Response) map[string]any {
	var body any = resp.Body
	if gjson.Valid(resp.Body) {
		var decoded any
		if err := json.Unmarshal([]byte(resp.Body), &decoded); err == nil {
			for _, p := range m.ignore {
				dropPath(decoded, strings.Split(p, "."))
			}
			body = decoded
		}
	}
	return map[string]any{"status": float64(resp.Status), "body": body}
}

// Compare compares resp against the snapshot stored under key.
func (m *Manager) Compare(key string, resp *http.Response) *Result {
	actual := m.Capture(resp)
	result := &Result{Key: key, Actual: actual}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.load(); err != nil {
		result.Message = fmt.Sprintf("failed to load snapshots: %v", err)
		return result
	}

	expected, exists := m.snapshots[key]
	switch {
	case exists && reflect.DeepEqual(expected, any(actual)):
		result.Expected = expected
		result.Passed = true
		return result
	case !m.update && !exists:
		result.Message = "snapshot does not exist (run with --update-snapshots to create)"
		return result
	case !m.update:
		result.Expected = expected
		result.Message = "snapshot mismatch"
		return result
	}

	m.snapshots[key] = actual
	if err := m.save(); err != nil {
		result.Message = fmt.Sprintf("failed to save snapshot: %v", err)
		return result
	}
	result.Passed = true
	result.Expected = actual
	if exists {
		result.Updated = true
		result.Message = "snapshot updated"
	} else {
		result.IsNew = true
		result.Message = "new snapshot created"
	}
	return result
}

// load reads the snapshot file once. Values are normalized through JSON so
// they compare equal to freshly captured ones.
func (m *Manager) load() error {
	if m.snapshots != nil {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.snapshots = make(map[string]any)
			return nil
		}
		return err
	}

	var snapshots map[string]any
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return fmt.Errorf("parsing %s: %w", m.path, err)
	}
	if snapshots == nil {
		snapshots = make(map[string]any)
	}
	m.snapshots = snapshots
	return nil
}

func (m *Manager) save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m.snapshots, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, append(data, '\n'), 0644)
}

// dropPath deletes the value at path from decoded JSON objects. Arrays are
// walked element by element.
func dropPath(v any, path []string) {
	if len(path) == 0 {
		return
	}
	switch node := v.(type) {
	case map[string]any:
		if len(path) == 1 {
			delete(node, path[0])
			return
		}
		dropPath(node[path[0]], path[1:])
	case []any:
		for _, elem := range node {
			dropPath(elem, path)
		}
	}
}
