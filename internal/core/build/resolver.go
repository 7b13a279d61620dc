package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/melih/lighthouse-builder/internal/core/domain"
)

// ResolveProjectType picks the project type for dir. A non-nil override is
// returned as is; otherwise the type follows from which marker file exists.
func ResolveProjectType(dir string, override *domain.ProjectType) (domain.ProjectType, error) {
	if override != nil {
		return *override, nil
	}

	gradle := isRegularFile(filepath.Join(dir, domain.GradleMarker))
	maven := isRegularFile(filepath.Join(dir, domain.MavenMarker))

	switch {
	case gradle && maven:
		return domain.ProjectType{}, fmt.Errorf("%w: both %s and %s are found in %s (please specify the project type explicitly)",
			domain.ErrAmbiguousProject, domain.GradleMarker, domain.MavenMarker, dir)
	case gradle:
		return domain.Gradle, nil
	case maven:
		return domain.Maven, nil
	default:
		return domain.ProjectType{}, fmt.Errorf("%w: neither %s nor %s is found in %s",
			domain.ErrUnknownProject, domain.GradleMarker, domain.MavenMarker, dir)
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
