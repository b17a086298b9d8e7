//go:build linux

package executor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// processGone treats zombies as gone: an orphan may wait on a reaper that a
// minimal container init never runs.
func processGone(t *testing.T, pid string) bool {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("/proc", pid, "stat"))
	if err != nil {
		return true
	}
	// Format: pid (comm) state ...
	stat := string(data)
	if i := strings.LastIndex(stat, ")"); i >= 0 && i+2 < len(stat) {
		return stat[i+2] == 'Z'
	}
	return false
}
