package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

func response(status int, body string) *http.Response {
	return &http.Response{Status: status, Body: body}
}

func TestFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("api", SnapshotDir, "hitpost"+SnapshotExt), FilePath(filepath.Join("api", "hitpost.yaml")))
	assert.Equal(t, filepath.Join(SnapshotDir, "work"+SnapshotExt), FilePath("work.yaml"))
}

func TestManager_Compare_NewSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotDir, "test"+SnapshotExt)
	manager := NewManager(path, WithUpdate(true))

	result := manager.Compare("request_1", response(200, `{"id":1,"name":"John"}`))
	assert.True(t, result.Passed, result.Message)
	assert.True(t, result.IsNew)
	assert.False(t, result.Updated)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestManager_Compare_Missing(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "none.snap.json"))

	result := manager.Compare("request_1", response(200, `{}`))
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "does not exist")
}

func TestManager_Compare_Match(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snap.json")
	require.True(t, NewManager(path, WithUpdate(true)).Compare("r", response(200, `{"a":[1,2],"b":"x"}`)).Passed)

	// A fresh manager reads the file back; key order and whitespace do not matter.
	result := NewManager(path).Compare("r", response(200, `{"b": "x", "a": [1, 2]}`))
	assert.True(t, result.Passed, result.Message)
	assert.NotNil(t, result.Expected)
}

func TestManager_Compare_Mismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snap.json")
	require.True(t, NewManager(path, WithUpdate(true)).Compare("r", response(200, `{"a":1}`)).Passed)

	result := NewManager(path).Compare("r", response(200, `{"a":2}`))
	assert.False(t, result.Passed)
	assert.Equal(t, "snapshot mismatch", result.Message)

	result = NewManager(path).Compare("r", response(404, `{"a":1}`))
	assert.False(t, result.Passed, "status is part of the snapshot")
}

func TestManager_Compare_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snap.json")
	require.True(t, NewManager(path, WithUpdate(true)).Compare("r", response(200, `{"a":1}`)).Passed)

	result := NewManager(path, WithUpdate(true)).Compare("r", response(200, `{"a":2}`))
	assert.True(t, result.Passed)
	assert.True(t, result.Updated)

	assert.True(t, NewManager(path).Compare("r", response(200, `{"a":2}`)).Passed)
}

func TestManager_Compare_TextBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snap.json")
	manager := NewManager(path, WithUpdate(true))
	require.True(t, manager.Compare("r", response(200, "plain text")).Passed)

	assert.True(t, NewManager(path).Compare("r", response(200, "plain text")).Passed)
	assert.False(t, NewManager(path).Compare("r", response(200, "other text")).Passed)
}

func TestManager_Compare_Ignore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snap.json")
	opts := []Option{WithIgnore("id", "items.createdAt")}
	require.True(t, NewManager(path, append(opts, WithUpdate(true))...).Compare("r",
		response(200, `{"id":"a1","items":[{"n":1,"createdAt":"t1"}]}`)).Passed)

	result := NewManager(path, opts...).Compare("r", response(200, `{"id":"b2","items":[{"n":1,"createdAt":"t2"}]}`))
	assert.True(t, result.Passed, result.Message)
}

func TestManager_Compare_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snap.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	result := NewManager(path, WithUpdate(true)).Compare("r", response(200, `{}`))
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "failed to load snapshots")
}

func TestResult_Assertion(t *testing.T) {
	r := (&Result{Key: "request_1", Passed: true}).Assertion()
	assert.True(t, r.Passed)
	assert.Equal(t, "snapshot request_1", r.Subject)
	assert.Equal(t, "matches", r.Operator)
	assert.Equal(t, "snapshot matches", r.Message)
}
