package scan

import (
	"fmt"
	"os"
)

// validateScanArgs validates the arguments provided to the scan command and
// returns the project folder.
func validateScanArgs(options *RunOptionsScan, args []string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("the target path does not exist: %v", target)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("the target path is not a directory: %v", target)
	}

	switch options.Format {
	case "", FormatJSON:
		options.Format = FormatJSON
	case FormatSARIF:
	default:
		return "", fmt.Errorf("unsupported report format %q, use %q or %q", options.Format, FormatJSON, FormatSARIF)
	}

	if options.Baseline != "" {
		if _, err := os.Stat(options.Baseline); err != nil {
			return "", fmt.Errorf("the baseline report is not readable: %w", err)
		}
	}

	return target, nil
}
