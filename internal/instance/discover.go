// pattern: Imperative Shell
package instance

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const healthTimeout = 2 * time.Second

// ErrNoInstance means no server holds the lock in the data directory.
var ErrNoInstance = errors.New("no running projectbranch server found (start one with 'projectbranch serve')")

// Discover returns the base URL (e.g. "http://127.0.0.1:12345") of the
// server running from dataDir. The lock must be held, the port file
// present and the health endpoint answering.
func Discover(dataDir string) (string, error) {
	// Acquiring the lock here means nobody else holds it.
	lockPath := filepath.Join(dataDir, lockFileName)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		return "", ErrNoInstance
	}
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return "", fmt.Errorf("failed to check lock: %w", err)
	}
	if locked {
		_ = fl.Unlock()
		return "", ErrNoInstance
	}

	data, err := os.ReadFile(filepath.Join(dataDir, portFileName))
	if err != nil {
		return "", fmt.Errorf("server detected but port file missing (try 'projectbranch cleanup'): %w", err)
	}

	addr := strings.TrimSpace(string(data))
	if addr == "" {
		return "", fmt.Errorf("port file is empty (try 'projectbranch cleanup')")
	}

	baseURL := fmt.Sprintf("http://%s", addr)

	client := &http.Client{Timeout: healthTimeout}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return "", fmt.Errorf("server not responding (try 'projectbranch cleanup'): %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("health check failed (status %d)", resp.StatusCode)
	}

	return baseURL, nil
}
