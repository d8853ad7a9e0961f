package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "i94dw v"+version)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dwh.cfg")
	require.NoError(t, os.WriteFile(path, []byte(`[CLUSTER]
HOST=dwh.example.com
DB_PASSWORD=hunter2

[AWS]
KEY=AKIAEXAMPLE
SECRET=topsecret
`), 0o600))

	out, err := execute(t, "config", "show", "--config", path, "--env-file", filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Contains(t, out, "host: dwh.example.com")
	assert.Contains(t, out, "AKIA********")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "topsecret")
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "missing.cfg"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestWarehouseRequiresCluster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dwh.cfg")
	require.NoError(t, os.WriteFile(path, []byte("[OUTPUT]\nROOT=s3://bucket/output\n"), 0o600))

	_, err := execute(t, "warehouse", "load", "--reset", "--config", path, "--env-file", filepath.Join(dir, ".env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLUSTER.HOST")
}

func TestUnknownArgs(t *testing.T) {
	_, err := execute(t, "transform", "extra")
	require.Error(t, err)
}
