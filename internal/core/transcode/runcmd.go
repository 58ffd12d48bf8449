package transcode

import (
	"regexp"
	"strings"

	"github.com/docker/go-connections/nat"
	shellwords "github.com/mattn/go-shellwords"
)

// =============================================================================
// Command Parsing
// =============================================================================

// volumeCreateRe matches the fixed docker volume create command prefix.
var volumeCreateRe = regexp.MustCompile(`^docker\s+volume\s+create\s+(\S+)$`)

// ParseVolumeCreate recognizes a standalone docker volume create command and
// returns the volume name.
func ParseVolumeCreate(line string) (string, bool) {
	m := volumeCreateRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// boolFlags are docker run flags that take no value.
var boolFlags = map[string]bool{
	"-d":               true,
	"--detach":         true,
	"--rm":             true,
	"-i":               true,
	"--interactive":    true,
	"-t":               true,
	"--tty":            true,
	"--init":           true,
	"-P":               true,
	"--publish-all":    true,
	"--privileged":     true,
	"--read-only":      true,
	"--no-healthcheck": true,
}

// valueFlags maps docker run flags that take a value to a canonical name.
var valueFlags = map[string]string{
	"--name":       "name",
	"-p":           "publish",
	"--publish":    "publish",
	"-e":           "env",
	"--env":        "env",
	"-v":           "volume",
	"--volume":     "volume",
	"--net":        "network",
	"--network":    "network",
	"--restart":    "restart",
	"--entrypoint": "entrypoint",
	"-w":           "workdir",
	"--workdir":    "workdir",
	"-h":           "hostname",
	"--hostname":   "hostname",
	"-l":           "label",
	"--label":      "label",
}

// ParseRunCommand parses a single docker run command line into its
// structured form. Flags outside the supported set fail with a transcode
// error rather than being silently dropped.
func ParseRunCommand(line string) (*RunCommand, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmptyInput
	}

	tokens, err := shellwords.Parse(line)
	if err != nil {
		return nil, NewTranscodeError("", err.Error(), ErrNotRunCommand)
	}

	rest, err := stripRunPrefix(tokens)
	if err != nil {
		return nil, err
	}

	cmd := &RunCommand{}
	i := 0
	for i < len(rest) {
		tok := rest[i]
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			// First positional argument is the image; everything after
			// is the container command.
			cmd.Image = tok
			cmd.Command = append(cmd.Command, rest[i+1:]...)
			break
		}

		flag := tok
		value := ""
		hasInline := false
		if strings.HasPrefix(tok, "--") {
			if eq := strings.Index(tok, "="); eq >= 0 {
				flag = tok[:eq]
				value = tok[eq+1:]
				hasInline = true
			}
		}

		if name, ok := valueFlags[flag]; ok {
			if !hasInline {
				i++
				if i >= len(rest) {
					return nil, NewTranscodeError(flag, "flag requires a value", ErrNotRunCommand)
				}
				value = rest[i]
			}
			if err := applyFlag(cmd, name, value); err != nil {
				return nil, err
			}
			i++
			continue
		}

		if boolFlags[flag] || isCombinedBoolFlag(flag) {
			switch {
			case flag == "-d" || flag == "--detach":
				cmd.Detach = true
			case flag == "--rm":
				cmd.AutoRemove = true
			case isCombinedBoolFlag(flag) && strings.ContainsRune(flag[1:], 'd'):
				cmd.Detach = true
			}
			i++
			continue
		}

		return nil, NewTranscodeError(flag, "unsupported flag "+flag, ErrUnknownFlag)
	}

	if cmd.Image == "" {
		return nil, NewTranscodeError("", "run command has no image", ErrMissingImage)
	}

	return cmd, nil
}

// stripRunPrefix validates and removes the docker run / docker container run
// prefix from a token list.
func stripRunPrefix(tokens []string) ([]string, error) {
	if len(tokens) < 2 || tokens[0] != "docker" {
		return nil, NewTranscodeError("", "expected a docker run command", ErrNotRunCommand)
	}
	switch tokens[1] {
	case "run":
		return tokens[2:], nil
	case "container":
		if len(tokens) >= 3 && tokens[2] == "run" {
			return tokens[3:], nil
		}
	}
	return nil, NewTranscodeError("", "expected a docker run command", ErrNotRunCommand)
}

// isCombinedBoolFlag recognizes bundled short booleans like -itd.
func isCombinedBoolFlag(flag string) bool {
	if len(flag) < 3 || strings.HasPrefix(flag, "--") {
		return false
	}
	for _, c := range flag[1:] {
		if !strings.ContainsRune("idt", c) {
			return false
		}
	}
	return true
}

// applyFlag records a parsed value flag on the command.
func applyFlag(cmd *RunCommand, name, value string) error {
	switch name {
	case "name":
		cmd.Name = value
	case "publish":
		mappings, err := nat.ParsePortSpec(value)
		if err != nil {
			return NewTranscodeError("-p "+value, err.Error(), ErrInvalidPort)
		}
		for _, m := range mappings {
			cmd.Ports = append(cmd.Ports, PortMapping{
				HostIP:        m.Binding.HostIP,
				HostPort:      m.Binding.HostPort,
				ContainerPort: m.Port.Port(),
				Protocol:      m.Port.Proto(),
			})
		}
	case "env":
		key, val, _ := strings.Cut(value, "=")
		cmd.Env = append(cmd.Env, EnvVar{Key: key, Value: val})
	case "volume":
		if strings.TrimSpace(value) == "" {
			return NewTranscodeError("-v", "empty volume specification", ErrInvalidMount)
		}
		cmd.Volumes = append(cmd.Volumes, value)
	case "network":
		cmd.Networks = append(cmd.Networks, value)
	case "restart":
		cmd.Restart = value
	case "entrypoint":
		cmd.Entrypoint = value
	case "workdir":
		cmd.WorkingDir = value
	case "hostname":
		cmd.Hostname = value
	case "label":
		key, val, _ := strings.Cut(value, "=")
		cmd.Labels = append(cmd.Labels, EnvVar{Key: key, Value: val})
	}
	return nil
}
