// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Run("With the sub-commands registered", func(t *testing.T) {
		rootCmd := newRootCmd(new(rootOptions))
		for _, name := range []string{"read", "append", "subscribe", "gossip"} {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		}
	})
	t.Run("With --connection winning over --config and the environment", func(t *testing.T) {
		t.Setenv(envConnectionString, "ConnectTo=tcp://127.0.0.3:1113")
		path := filepath.Join(t.TempDir(), "esclient.yaml")
		require.NoError(t, os.WriteFile(path, []byte("connect_to: tcp://127.0.0.2:1113\n"), 0o600))

		options := new(rootOptions)
		rootCmd := newRootCmd(options)
		require.NoError(t, rootCmd.PersistentFlags().Parse([]string{
			"--connection", "ConnectTo=tcp://127.0.0.1:1113",
			"--config", path,
		}))

		cfg, err := options.config()
		require.NoError(t, err)
		assert.Equal(t, "tcp://127.0.0.1:1113", cfg.ConnectTo)
	})
	t.Run("With --config winning over the environment", func(t *testing.T) {
		t.Setenv(envConnectionString, "ConnectTo=tcp://127.0.0.3:1113")
		path := filepath.Join(t.TempDir(), "esclient.yaml")
		require.NoError(t, os.WriteFile(path, []byte("connect_to: tcp://127.0.0.2:1113\n"), 0o600))

		options := new(rootOptions)
		require.NoError(t, newRootCmd(options).PersistentFlags().Parse([]string{"--config", path}))

		cfg, err := options.config()
		require.NoError(t, err)
		assert.Equal(t, "tcp://127.0.0.2:1113", cfg.ConnectTo)
	})
	t.Run("With the environment only", func(t *testing.T) {
		t.Setenv(envConnectionString, "GossipSeeds=10.0.0.1:2113")

		options := new(rootOptions)
		cfg, err := options.config()
		require.NoError(t, err)
		assert.True(t, cfg.IsCluster())
	})
	t.Run("With no target", func(t *testing.T) {
		t.Setenv(envConnectionString, "")

		_, err := new(rootOptions).config()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no target")
	})
	t.Run("With the target read from the env file", func(t *testing.T) {
		unsetEnv(t, envConnectionString)
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte(envConnectionString+"=\"ConnectTo=tcp://127.0.0.1:1113\"\n"), 0o600))

		err := execute(t, "--env-file", envFile, "gossip")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gossip requires a cluster configuration")
	})
	t.Run("With a missing env file", func(t *testing.T) {
		unsetEnv(t, envConnectionString)

		err := execute(t, "--env-file", filepath.Join(t.TempDir(), ".env"), "gossip")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no target")
	})
	t.Run("With an invalid connection string", func(t *testing.T) {
		err := execute(t, "--env-file", filepath.Join(t.TempDir(), ".env"), "--connection", "ConnectTo", "read", "orders")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid connection string")
	})
	t.Run("With missing arguments", func(t *testing.T) {
		err := execute(t, "--env-file", filepath.Join(t.TempDir(), ".env"), "append", "orders")
		require.Error(t, err)
	})
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	rootCmd := newRootCmd(new(rootOptions))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// unsetEnv removes key for the duration of the test
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
