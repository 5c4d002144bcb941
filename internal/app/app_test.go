package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denkhaus/conductor/internal/orchestration"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New("test", "test-commit", "test-date")
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewBuildsApp(t *testing.T) {
	a := newTestApp(t)
	assert.NotNil(t, a.App)
	assert.NotNil(t, a.store)
	assert.NotNil(t, a.bus)
	assert.Equal(t, "conductor", a.App.Name)
}

func TestAppCommandsStructure(t *testing.T) {
	a := newTestApp(t)

	names := make(map[string]bool)
	for _, cmd := range a.App.Commands {
		names[cmd.Name] = true
	}

	for _, expected := range []string{"task", "subtask", "project", "context", "agent", "token"} {
		assert.True(t, names[expected], "command %s should be registered", expected)
	}
}

func TestAppFlags(t *testing.T) {
	a := newTestApp(t)

	names := make(map[string]bool)
	for _, flag := range a.App.Flags {
		names[flag.Names()[0]] = true
	}

	for _, expected := range []string{"user", "pretty", "log-level"} {
		assert.True(t, names[expected], "flag %s should be registered", expected)
	}
}

func TestAppRunHelp(t *testing.T) {
	a := newTestApp(t)
	var buf bytes.Buffer
	a.App.Writer = &buf

	err := a.Run([]string{"conductor", "--help"})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Multi-tenant task orchestration facade")
}

func TestAppProjectCreateAndList(t *testing.T) {
	a := newTestApp(t)
	var buf bytes.Buffer
	a.App.Writer = &buf

	err := a.Run([]string{"conductor", "--user", "tester", "project", "create", `{"name":"Demo Project"}`})
	require.NoError(t, err)

	var created orchestration.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &created))
	assert.True(t, created.Success)

	buf.Reset()
	err = a.Run([]string{"conductor", "--user", "tester", "project", "list", "{}"})
	require.NoError(t, err)

	var listed orchestration.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &listed))
	assert.True(t, listed.Success)
}

func TestAppUnknownActionFails(t *testing.T) {
	a := newTestApp(t)
	var buf bytes.Buffer
	a.App.Writer = &buf

	err := a.Run([]string{"conductor", "--user", "tester", "project", "no-such-action", "{}"})
	assert.Error(t, err)

	var resp orchestration.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
}

func TestAppMissingActionFails(t *testing.T) {
	a := newTestApp(t)
	err := a.Run([]string{"conductor", "project"})
	assert.Error(t, err)
}

func TestParseParamsRejectsInvalidJSON(t *testing.T) {
	_, err := parseParams("not-json")
	assert.Error(t, err)
}

func TestParseParamsEmptyDefaultsToEmptyObject(t *testing.T) {
	params, err := parseParams("")
	require.NoError(t, err)
	assert.Empty(t, params)
}
