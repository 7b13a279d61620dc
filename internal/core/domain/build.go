package domain

// DefaultVersion is the version parameter used when a caller does not give one.
const DefaultVersion = "17"

// BuildRequest holds the parameters of a single build invocation.
type BuildRequest struct {
	ProjectDir string
	// Version fills the version slot of the project type's image template.
	Version string
	// ProjectType, when set, skips marker detection.
	ProjectType *ProjectType
}
