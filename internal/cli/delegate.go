// pattern: Imperative Shell
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"projectbranch/internal/instance"
)

// Delegate coordinates discovering a running projectbranch server and
// delegating a CLI command to it via HTTP. It classifies errors into exit
// codes.
type Delegate struct {
	// ConfigDir is the config directory for lock/port file discovery.
	ConfigDir string

	// ClientTimeout is the HTTP client timeout. Defaults to
	// instance.DefaultClientTimeout.
	ClientTimeout time.Duration

	// Discover finds the server's base URL. Defaults to instance.Discover.
	// Overridable for testing.
	Discover func(dataDir string) (string, error)
}

// Client discovers the running server and returns an HTTP client for it.
//
// Exit codes carried by the returned *ExitError:
// - 2: no running projectbranch server found
// - 1: any other discovery failure
func (d *Delegate) Client() (*instance.Client, error) {
	discover := d.Discover
	if discover == nil {
		discover = instance.Discover
	}

	baseURL, err := discover(ResolveDataDir(d.ConfigDir))
	if err != nil {
		if errors.Is(err, instance.ErrNoInstance) {
			return nil, &ExitError{Code: 2, Err: err}
		}
		return nil, &ExitError{Code: 1, Err: err}
	}

	if d.ClientTimeout > 0 {
		return instance.NewClientWithTimeout(baseURL, d.ClientTimeout), nil
	}
	return instance.NewClient(baseURL), nil
}

// Run executes a delegated command by discovering the running server and
// invoking fn with an HTTP client targeting it. Server errors are reduced
// to their message.
func (d *Delegate) Run(fn func(*instance.Client) error) error {
	client, err := d.Client()
	if err != nil {
		return err
	}

	if err := fn(client); err != nil {
		var statusErr *instance.StatusError
		if errors.As(err, &statusErr) {
			return errors.New(statusErr.Message)
		}
		return err
	}
	return nil
}

// PrintJSON writes JSON data to w. Terminals get indented output; anything
// else gets the raw bytes.
func PrintJSON(w io.Writer, data []byte) error {
	if !isTerminal(w) {
		_, err := w.Write(data)
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		// If JSON parsing fails, just write raw
		_, err := w.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func requireArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d argument(s), got %d", ErrUsage, n, len(args))
	}
	return nil
}
