package viewmanager

import (
	"fmt"

	"github.com/grafana/sobek"
)

// ValidateVisibilityScript compiles the script without running it. Broken
// scripts are rejected at registration time instead of failing silently
// inside a surface after attach.
func ValidateVisibilityScript(src string) error {
	return validateScript("visibility.js", src)
}

func validateScript(name, src string) error {
	if src == "" {
		return nil
	}
	if _, err := sobek.Compile(name, src, false); err != nil {
		return fmt.Errorf("viewmanager: %s does not compile: %w", name, err)
	}
	return nil
}
