package device

import "fmt"

func launchError(block int, rec any) error {
	if recErr, ok := rec.(error); ok {
		return fmt.Errorf("partition %d failed: %w", block, recErr)
	}
	return fmt.Errorf("partition %d failed: %v", block, rec)
}
