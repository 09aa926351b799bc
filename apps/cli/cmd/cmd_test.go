package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
	"github.com/abdul-hamid-achik/hitpost/packages/server"
)

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitUsageError, exitCode(withExit(ExitUsageError, errors.New("bad flag"))))
	assert.Equal(t, ExitTestFailure, exitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, exitCode(fmt.Errorf("wrapped: %w", withExit(ExitConfigError, errors.New("x")))))
	assert.Nil(t, withExit(ExitParseError, nil))

	silent := exitSilently(ExitNetworkError)
	assert.True(t, isReported(silent))
	assert.Equal(t, ExitNetworkError, exitCode(silent))
	assert.False(t, isReported(errors.New("other")))
}

func TestIsURLTarget(t *testing.T) {
	assert.True(t, isURLTarget("https://api.test/users"))
	assert.True(t, isURLTarget("HTTP://api.test"))
	assert.True(t, isURLTarget("{{baseUrl}}/users"))
	assert.False(t, isURLTarget("Get user"))
	assert.False(t, isURLTarget("request_1a2b3c4"))
}

func TestCollectionPath(t *testing.T) {
	prev := settings.Collection
	t.Cleanup(func() { settings.Collection = prev })

	settings.Collection = ""
	assert.Equal(t, collection.DefaultFilename, collectionPath(""))
	settings.Collection = "api.yaml"
	assert.Equal(t, "api.yaml", collectionPath(""))
	assert.Equal(t, "other.yaml", collectionPath("other.yaml"))
}

func TestReadData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0644))

	got, err := readData("@" + path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)

	got, err = readData("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	_, err = readData("@" + filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFormCommand(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		out, err := execute(t, "", "form", "urlencoded", "name=John%20Doe&age=30", "-o", "console")
		require.NoError(t, err)
		assert.Equal(t, "name = John Doe\nage = 30\n", out)
	})

	t.Run("json from stdin", func(t *testing.T) {
		out, err := execute(t, "a=1\nb\na=2\n", "form", "multipart", "-o", "json")
		require.NoError(t, err)

		var pairs [][2]string
		require.NoError(t, json.Unmarshal([]byte(out), &pairs))
		assert.Equal(t, [][2]string{{"a", "1"}, {"a", "2"}}, pairs)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := execute(t, "", "form", "xml", "a=1", "-o", "console")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
		assert.Contains(t, err.Error(), "Unsupported form type")
	})
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Method", r.Method)
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(map[string]any{
			"method":      r.Method,
			"query":       r.URL.RawQuery,
			"body":        string(body),
			"contentType": r.Header.Get("Content-Type"),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// resetSendFlags clears values left behind by earlier executions.
func resetSendFlags() {
	sendReq = requestFlags{}
	sendQueryFlags = nil
	sendExpectFlags = nil
	sendExpectStatus = 0
	sendSnapshotFlag = false
	sendUpdateSnapshotFlag = false
	sendSnapshotIgnoreFlag = nil
}

func TestSendCommand(t *testing.T) {
	srv := echoServer(t)

	t.Run("json output", func(t *testing.T) {
		t.Cleanup(resetSendFlags)
		out, err := execute(t, "", "send", srv.URL+"/things", "--param", "q=go", "-d", "hello", "-o", "json")
		require.NoError(t, err)

		var resp http.Response
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, "POST", resp.Headers["x-method"])
		assert.Contains(t, resp.Body, `"query":"q=go"`)
		assert.Contains(t, resp.Body, `"body":"hello"`)
		assert.NotEmpty(t, resp.BodyPretty)
	})

	t.Run("failed expectation", func(t *testing.T) {
		t.Cleanup(resetSendFlags)
		_, err := execute(t, "", "send", srv.URL, "--expect-status", "201", "-o", "json")
		require.Error(t, err)
		assert.True(t, isReported(err))
		assert.Equal(t, ExitTestFailure, exitCode(err))
	})

	t.Run("query", func(t *testing.T) {
		t.Cleanup(resetSendFlags)
		out, err := execute(t, "", "send", srv.URL, "-X", "put", "-q", "body.method", "-o", "console")
		require.NoError(t, err)
		assert.Equal(t, "PUT\n", out)
	})
}

func TestSendCommandFromCollection(t *testing.T) {
	srv := echoServer(t)

	path := filepath.Join(t.TempDir(), "hitpost.yaml")
	coll := &collection.Collection{}
	coll.Add(collection.Item{
		ID:          "request_abc1234",
		Name:        "Create",
		Method:      "POST",
		URL:         srv.URL + "/items",
		Body:        "a=1&b=2",
		BodyType:    string(http.BodyForm),
		FormSubtype: "urlencoded",
	}, "")
	require.NoError(t, coll.Save(path))
	t.Cleanup(resetSendFlags)

	out, err := execute(t, "", "send", "create", "-c", path, "-o", "json")
	require.NoError(t, err)

	var resp http.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Body, `"body":"a=1&b=2"`)
	assert.Contains(t, resp.Body, "application/x-www-form-urlencoded")
}

func TestSendCommandSnapshot(t *testing.T) {
	srv := echoServer(t)
	collPath := filepath.Join(t.TempDir(), "hitpost.yaml")
	t.Cleanup(resetSendFlags)

	_, err := execute(t, "", "send", srv.URL+"/snap", "-c", collPath, "--update-snapshots", "-o", "json")
	require.NoError(t, err)
	sendUpdateSnapshotFlag = false

	_, err = os.Stat(filepath.Join(filepath.Dir(collPath), "__snapshots__", "hitpost.snap.json"))
	require.NoError(t, err)

	_, err = execute(t, "", "send", srv.URL+"/snap", "-c", collPath, "--snapshot", "-o", "json")
	require.NoError(t, err)

	_, err = execute(t, "", "send", srv.URL+"/snap", "-c", collPath, "--snapshot", "--param", "changed=1", "-o", "json")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
}

func TestImportCurlCommand(t *testing.T) {
	out, err := execute(t, "", "import", "curl", "curl -X DELETE https://api.test/users/1 -H 'Accept: application/json'")
	require.NoError(t, err)
	assert.Contains(t, out, "method: DELETE")
	assert.Contains(t, out, "url: https://api.test/users/1")
	assert.Contains(t, out, "key: Accept")
}

func TestInvokeCommand(t *testing.T) {
	t.Run("single shot", func(t *testing.T) {
		out, err := execute(t, "", "invoke", "parse_form_data", `{"formStr":"a=1&b=2","formType":"urlencoded"}`)
		require.NoError(t, err)

		var pairs [][2]string
		require.NoError(t, json.Unmarshal([]byte(out), &pairs))
		assert.Equal(t, [][2]string{{"a", "1"}, {"b", "2"}}, pairs)
	})

	t.Run("command failure", func(t *testing.T) {
		out, err := execute(t, "", "invoke", "parse_form_data", `{"formStr":"a=1","formType":"json"}`)
		require.Error(t, err)
		assert.True(t, isReported(err))
		assert.Equal(t, ExitTestFailure, exitCode(err))
		assert.JSONEq(t, `"Unsupported form type"`, out)
	})

	t.Run("stdio", func(t *testing.T) {
		t.Cleanup(func() { invokeStdioFlag = false })
		stdin := `{"id":"1","cmd":"parse_form_data","args":{"formStr":"x=1","formType":"urlencoded"}}
{"id":"2","cmd":"nope"}
`
		out, err := execute(t, stdin, "invoke", "--stdio")
		require.NoError(t, err)

		replies := map[string]server.Reply{}
		scanner := bufio.NewScanner(strings.NewReader(out))
		for scanner.Scan() {
			var r server.Reply
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
			replies[r.ID] = r
		}
		require.Len(t, replies, 2)
		assert.True(t, replies["1"].OK)
		assert.Equal(t, []any{[]any{"x", "1"}}, replies["1"].Data)
		assert.False(t, replies["2"].OK)
		assert.NotNil(t, replies["2"].Error)
	})
}
