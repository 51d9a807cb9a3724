// Package update compares the running revctl version against the latest
// published release.
package update

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-version"

	"github.com/complyops/revctl/cli/internal/ui"
)

// latestRelease is refreshed at release time; REVCTL_LATEST_VERSION
// overrides it for testing the comparison path.
const latestRelease = "0.3.0"

// Check warns when a newer release exists. Development builds ("dev") are
// never compared.
func Check(currentVersion string) error {
	if currentVersion == "dev" {
		return nil
	}

	current, err := version.NewVersion(currentVersion)
	if err != nil {
		return fmt.Errorf("invalid version format: %w", err)
	}

	latestStr := latestRelease
	if v := os.Getenv("REVCTL_LATEST_VERSION"); v != "" {
		latestStr = v
	}
	latest, err := version.NewVersion(latestStr)
	if err != nil {
		return fmt.Errorf("invalid latest version format: %w", err)
	}

	if current.LessThan(latest) {
		ui.Warning("A new version is available!")
		fmt.Printf("Current version: %s\n", currentVersion)
		fmt.Printf("Latest version:  %s\n", latestStr)
		fmt.Printf("\nUpdate with: go install github.com/complyops/revctl/cli@latest\n")
	}
	return nil
}
