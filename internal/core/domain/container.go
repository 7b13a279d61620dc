package domain

// LabelBuild marks containers created for builds. Its value is the project type name.
const LabelBuild = "io.lighthouse.build"

// Container represents a build container known to the engine.
type Container struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	ProjectType string `json:"project_type"`
	Status      string `json:"status"`
	State       string `json:"state"` // running, exited, etc.
}

// ContainerSpec describes the build container handed to the engine on create.
type ContainerSpec struct {
	Name       string
	Image      string
	WorkingDir string
	Cmd        []string
	Mounts     []Mount
	Labels     map[string]string
}

// Mount binds a host path into the container.
type Mount struct {
	HostPath      string `json:"host_path" yaml:"host_path"`
	ContainerPath string `json:"container_path" yaml:"container_path"`
}

// Stream identifies which output stream a log frame came from.
type Stream int

const (
	StreamStdout Stream = iota + 1
	StreamStderr
)

func (s Stream) String() string {
	switch s {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// LogFrame is one demultiplexed chunk of container output.
type LogFrame struct {
	Stream  Stream
	Payload []byte
}

// PullProgress is a single progress event reported while pulling an image.
// Current and Total are nil when the engine did not report them.
type PullProgress struct {
	ID      string
	Status  string
	Current *int64
	Total   *int64
}
