package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sys/unix"
)

// CheckMoonraker verifies that the Moonraker websocket accepts a connection.
func CheckMoonraker(ctx context.Context, url, apiKey string) Result {
	const name = "Moonraker"

	url = strings.TrimSpace(url)
	if url == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	header := http.Header{}
	if key := strings.TrimSpace(apiKey); key != "" {
		header.Set("X-Api-Key", key)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.DialContext(checkCtx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		}
		return Result{Name: name, Detail: summarizeDialError(err)}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckManagedDir checks a subdirectory of root that helixprint creates on
// demand. A missing directory passes when root itself is usable.
func CheckManagedDir(name, root, sub string) Result {
	path := filepath.Join(root, filepath.FromSlash(sub))
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		if parent := CheckDirectoryAccess(name, root); !parent.Passed {
			return parent
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first use)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

func summarizeDialError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connect timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connect timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("unreachable (%v)", opErr.Err)
	}
	return err.Error()
}
