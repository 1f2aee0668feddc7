package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/assetdb/cli/app"
	"github.com/nspcc-dev/assetdb/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const testVersion = "0.1.0-test"

func init() {
	config.Version = testVersion
}

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// ConfigFile is a path to the configuration file with the on-disk DB
	// (can be empty).
	ConfigFile string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newExecutor(t *testing.T, needDB bool) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	if needDB {
		e.ConfigFile = newTestConfig(t)
	}
	return e
}

// newTestConfig writes the configuration with the BoltDB in a temporary
// directory, so that it survives between commands.
func newTestConfig(t *testing.T) string {
	dir := t.TempDir()
	cfg := `ProtocolConfiguration:
  Magic: 42
  MaxShareSupply: 1000000000000000
  MaxMarketFee: 10000
ApplicationConfiguration:
  LogPath: ` + filepath.Join(dir, "assetdb.log") + `
  DBConfiguration:
    Type: boltdb
    BoltDBOptions:
      FilePath: ` + filepath.Join(dir, "assets.bolt") + `
  AssetCacheSize: 16
`
	path := filepath.Join(dir, "protocol.yml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

// RunDB runs the command against the executor's DB. args must start with
// the program name followed by the command and the subcommand.
func (e *executor) RunDB(t *testing.T, args ...string) {
	e.Run(t, e.withConfig(args)...)
}

// RunDBWithError runs the command against the executor's DB and checks that
// it fails.
func (e *executor) RunDBWithError(t *testing.T, args ...string) {
	e.RunWithError(t, e.withConfig(args)...)
}

// withConfig puts the configuration flag right after the subcommand, so that
// positional arguments stay last.
func (e *executor) withConfig(args []string) []string {
	res := make([]string, 0, len(args)+2)
	res = append(res, args[:3]...)
	res = append(res, "--config-file", e.ConfigFile)
	return append(res, args[3:]...)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}
