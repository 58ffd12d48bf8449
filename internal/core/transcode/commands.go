package transcode

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Manifest -> Commands
// =============================================================================

// ToCommands translates a Docker Compose manifest into one docker run
// command per service, preceded by a docker volume create command for each
// named top-level volume. Output ordering is deterministic: volumes sorted
// by name, services sorted by name.
func ToCommands(manifestText string) ([]string, error) {
	if strings.TrimSpace(manifestText) == "" {
		return nil, ErrEmptyInput
	}

	project, err := loadManifest(manifestText)
	if err != nil {
		return nil, err
	}

	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	var commands []string

	volumeNames := make([]string, 0, len(project.Volumes))
	for name := range project.Volumes {
		volumeNames = append(volumeNames, name)
	}
	sort.Strings(volumeNames)
	for _, name := range volumeNames {
		commands = append(commands, "docker volume create "+name)
	}

	serviceNames := make([]string, 0, len(project.Services))
	for name := range project.Services {
		serviceNames = append(serviceNames, name)
	}
	sort.Strings(serviceNames)
	for _, name := range serviceNames {
		cmd, err := serviceToCommand(name, project.Services[name])
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}

// loadManifest loads a compose manifest using compose-go.
func loadManifest(manifestText string) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(manifestText), &dict); err != nil {
		return nil, NewTranscodeError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewTranscodeError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(manifestText),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("transcode-temp", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// In-memory input: nothing to resolve on disk
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, NewTranscodeError("", err.Error(), ErrInvalidYAML)
	}

	return project, nil
}

// serviceToCommand renders one service as a docker run command line.
func serviceToCommand(name string, svc types.ServiceConfig) (string, error) {
	if svc.Image == "" {
		return "", NewTranscodeError("services."+name, "service must have an image", ErrMissingImage)
	}

	args := []string{"docker", "run", "-d", "--name", shellQuote(name)}

	if svc.Hostname != "" {
		args = append(args, "--hostname", shellQuote(svc.Hostname))
	}
	if len(svc.Entrypoint) > 0 {
		args = append(args, "--entrypoint", shellQuote(strings.Join(svc.Entrypoint, " ")))
	}
	if svc.WorkingDir != "" {
		args = append(args, "-w", shellQuote(svc.WorkingDir))
	}

	for _, p := range svc.Ports {
		args = append(args, "-p", shellQuote(formatPort(p)))
	}

	envKeys := make([]string, 0, len(svc.Environment))
	for k := range svc.Environment {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)
	for _, k := range envKeys {
		value := ""
		if v := svc.Environment[k]; v != nil {
			value = *v
		}
		args = append(args, "-e", shellQuote(k+"="+value))
	}

	for _, v := range svc.Volumes {
		args = append(args, "-v", shellQuote(formatMount(v)))
	}

	networks := make([]string, 0, len(svc.Networks))
	for net := range svc.Networks {
		networks = append(networks, net)
	}
	sort.Strings(networks)
	for _, net := range networks {
		args = append(args, "--network", shellQuote(net))
	}

	labelKeys := make([]string, 0, len(svc.Labels))
	for k := range svc.Labels {
		labelKeys = append(labelKeys, k)
	}
	sort.Strings(labelKeys)
	for _, k := range labelKeys {
		args = append(args, "--label", shellQuote(k+"="+svc.Labels[k]))
	}

	if svc.Restart != "" && svc.Restart != "no" {
		args = append(args, "--restart", shellQuote(svc.Restart))
	}

	args = append(args, shellQuote(svc.Image))
	for _, c := range svc.Command {
		args = append(args, shellQuote(c))
	}

	return strings.Join(args, " "), nil
}

// formatPort renders a compose port config in docker run -p syntax.
func formatPort(p types.ServicePortConfig) string {
	var b strings.Builder
	if p.HostIP != "" {
		b.WriteString(p.HostIP)
		b.WriteString(":")
	}
	if p.Published != "" {
		b.WriteString(p.Published)
		b.WriteString(":")
	} else if p.HostIP != "" {
		b.WriteString(":")
	}
	b.WriteString(fmt.Sprintf("%d", p.Target))
	if p.Protocol != "" && p.Protocol != "tcp" {
		b.WriteString("/")
		b.WriteString(p.Protocol)
	}
	return b.String()
}

// formatMount renders a compose volume mount in docker run -v syntax.
func formatMount(v types.ServiceVolumeConfig) string {
	spec := v.Source + ":" + v.Target
	if v.ReadOnly {
		spec += ":ro"
	}
	return spec
}

// shellQuote quotes an argument for a POSIX shell when needed.
func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$&|;<>()*?[]#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
