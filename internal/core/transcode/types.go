package transcode

// =============================================================================
// RunCommand - Parsed docker run Invocation
// =============================================================================

// RunCommand is the structured form of a single docker run invocation.
// Slices preserve the order flags appeared on the command line.
type RunCommand struct {
	Image      string        `json:"image"`
	Name       string        `json:"name,omitempty"`
	Command    []string      `json:"command,omitempty"`
	Entrypoint string        `json:"entrypoint,omitempty"`
	Hostname   string        `json:"hostname,omitempty"`
	WorkingDir string        `json:"working_dir,omitempty"`
	Detach     bool          `json:"detach,omitempty"`
	AutoRemove bool          `json:"auto_remove,omitempty"`
	Ports      []PortMapping `json:"ports,omitempty"`
	Env        []EnvVar      `json:"environment,omitempty"`
	Volumes    []string      `json:"volumes,omitempty"`
	Networks   []string      `json:"networks,omitempty"`
	Labels     []EnvVar      `json:"labels,omitempty"`
	Restart    string        `json:"restart,omitempty"`
}

// PortMapping represents one -p flag.
type PortMapping struct {
	HostIP        string `json:"host_ip,omitempty"`
	HostPort      string `json:"host_port,omitempty"`
	ContainerPort string `json:"container_port"`
	Protocol      string `json:"protocol,omitempty"` // tcp, udp
}

// EnvVar is an ordered key/value pair from -e or --label flags.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// =============================================================================
// Options
// =============================================================================

// Options controls manifest generation.
type Options struct {
	// ExternalVolumes are named volumes created out of band (via
	// docker volume create) before the services run. Their top-level
	// entries are annotated with external/name fields and an advisory
	// comment.
	ExternalVolumes []string
}
