// Package host identifies the machine a scan runs on.
package host

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Identify returns the hostname of the current machine, or nil when it
// cannot be determined.
func Identify(ctx context.Context) *string {
	if info, err := host.InfoWithContext(ctx); err == nil && info != nil {
		if name := strings.TrimSpace(info.Hostname); name != "" {
			return &name
		}
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return &name
	}
	return nil
}
