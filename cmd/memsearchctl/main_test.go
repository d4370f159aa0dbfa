package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/memsearch/internal/domain/search/query"
)

func testApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()
	app := newApp()
	out := &bytes.Buffer{}
	app.Writer = out
	app.ErrWriter = out
	return app, out
}

func findCommand(t *testing.T, cmds []*cli.Command, path ...string) *cli.Command {
	t.Helper()
	var cmd *cli.Command
	for _, name := range path {
		cmd = nil
		for _, c := range cmds {
			if c.Name == name {
				cmd = c
				break
			}
		}
		require.NotNil(t, cmd, "command %q not found", name)
		cmds = cmd.Subcommands
	}
	return cmd
}

func TestCommandFlags(t *testing.T) {
	t.Run("owner is required for search", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run([]string{"memsearchctl", "search", "coffee"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner")
	})

	t.Run("feature is required for prompt get", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run([]string{"memsearchctl", "prompt", "get"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feature")
	})

	t.Run("search defaults", func(t *testing.T) {
		app, _ := testApp(t)
		cmd := findCommand(t, app.Commands, "search")
		for _, flag := range cmd.Flags {
			switch f := flag.(type) {
			case *cli.IntFlag:
				if f.Name == "limit" {
					assert.Equal(t, query.DefaultLimit, f.Value)
				}
			case *cli.BoolFlag:
				if f.Name == "expand" {
					assert.True(t, f.Value)
				}
			}
		}
	})

	t.Run("import reads stdin by default", func(t *testing.T) {
		app, _ := testApp(t)
		cmd := findCommand(t, app.Commands, "fact", "import")
		var fileFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "file" {
				fileFlag = f
			}
		}
		require.NotNil(t, fileFlag)
		assert.Equal(t, "-", fileFlag.Value)
	})
}

func TestCommandArgs(t *testing.T) {
	t.Run("fact add needs text", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run([]string{"memsearchctl", "fact", "add", "--owner", "alice"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fact text is required")
	})

	t.Run("prompt set needs text", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run([]string{"memsearchctl", "prompt", "set", "--feature", "search_query", "  "})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt text is required")
	})

	t.Run("search rejects threshold out of range", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run([]string{"memsearchctl", "search", "--owner", "alice", "--threshold", "1.5", "coffee"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid search")
	})

	t.Run("import with empty input", func(t *testing.T) {
		app, _ := testApp(t)
		app.Reader = strings.NewReader("\n  \n")
		err := app.Run([]string{"memsearchctl", "fact", "import", "--owner", "alice"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no facts to import")
	})
}

func TestReadInput(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		lines, err := readInput("-", strings.NewReader("likes tea\n\n  works at Acme  \n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"likes tea", "works at Acme"}, lines)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "facts.txt")
		require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o600))

		lines, err := readInput(path, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, lines)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readInput(filepath.Join(t.TempDir(), "nope.txt"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open input")
	})
}
