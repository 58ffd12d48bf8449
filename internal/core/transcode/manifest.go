package transcode

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Commands -> Manifest
// =============================================================================

// VolumeAnnotationComment is the advisory comment the transcoder attaches
// above externally created volume blocks.
func VolumeAnnotationComment(name string) string {
	return fmt.Sprintf("volume %q is created outside the manifest (docker volume create %s)", name, name)
}

// ToManifest translates docker run commands into a Docker Compose manifest.
// Each command becomes one service; named volumes referenced by mounts get
// top-level entries. Volumes listed in opts.ExternalVolumes are annotated
// with external/name fields and an advisory comment.
func ToManifest(commands []string, opts Options) (string, error) {
	if len(commands) == 0 {
		return "", ErrEmptyInput
	}

	parsed := make([]*RunCommand, 0, len(commands))
	for _, line := range commands {
		cmd, err := ParseRunCommand(line)
		if err != nil {
			return "", err
		}
		parsed = append(parsed, cmd)
	}

	external := make(map[string]bool, len(opts.ExternalVolumes))
	for _, name := range opts.ExternalVolumes {
		external[name] = true
	}

	servicesNode := &yaml.Node{Kind: yaml.MappingNode}
	namedVolumes := map[string]bool{}
	usedKeys := map[string]bool{}

	for _, cmd := range parsed {
		key := serviceKey(cmd, usedKeys)
		servicesNode.Content = append(servicesNode.Content,
			scalarNode(key),
			serviceNode(cmd, namedVolumes),
		)
	}

	// Standalone volume-create commands may name volumes no service mounts;
	// they still belong in the volumes section.
	for _, name := range opts.ExternalVolumes {
		namedVolumes[name] = true
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, scalarNode("services"), servicesNode)

	if len(namedVolumes) > 0 {
		volNames := make([]string, 0, len(namedVolumes))
		for name := range namedVolumes {
			volNames = append(volNames, name)
		}
		sort.Strings(volNames)

		volumesNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range volNames {
			keyNode := scalarNode(name)
			var valueNode *yaml.Node
			if external[name] {
				keyNode.HeadComment = VolumeAnnotationComment(name)
				valueNode = &yaml.Node{Kind: yaml.MappingNode}
				valueNode.Content = append(valueNode.Content,
					scalarNode("external"), boolNode(true),
					scalarNode("name"), scalarNode(name),
				)
			} else {
				valueNode = nullNode()
			}
			volumesNode.Content = append(volumesNode.Content, keyNode, valueNode)
		}
		root.Content = append(root.Content, scalarNode("volumes"), volumesNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", NewTranscodeError("", err.Error(), ErrInvalidYAML)
	}
	if err := enc.Close(); err != nil {
		return "", NewTranscodeError("", err.Error(), ErrInvalidYAML)
	}

	return buf.String(), nil
}

// serviceKey derives a unique service key from the container name or image.
func serviceKey(cmd *RunCommand, used map[string]bool) string {
	base := cmd.Name
	if base == "" {
		base = imageBaseName(cmd.Image)
	}
	if base == "" {
		base = "service"
	}
	key := base
	for n := 2; used[key]; n++ {
		key = fmt.Sprintf("%s-%d", base, n)
	}
	used[key] = true
	return key
}

// imageBaseName strips registry, path, tag and digest from an image ref.
func imageBaseName(image string) string {
	name := image
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[:i]
	}
	return name
}

// serviceNode renders one parsed run command as a compose service mapping.
// Named volume sources encountered in mounts are recorded in namedVolumes.
func serviceNode(cmd *RunCommand, namedVolumes map[string]bool) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}

	addKV := func(key string, value *yaml.Node) {
		node.Content = append(node.Content, scalarNode(key), value)
	}

	addKV("image", scalarNode(cmd.Image))

	if cmd.Hostname != "" {
		addKV("hostname", scalarNode(cmd.Hostname))
	}
	if cmd.Entrypoint != "" {
		addKV("entrypoint", scalarNode(cmd.Entrypoint))
	}
	if cmd.WorkingDir != "" {
		addKV("working_dir", scalarNode(cmd.WorkingDir))
	}

	if len(cmd.Ports) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range cmd.Ports {
			spec := formatPortMapping(p)
			item := scalarNode(spec)
			item.Style = yaml.DoubleQuotedStyle
			seq.Content = append(seq.Content, item)
		}
		addKV("ports", seq)
	}

	if len(cmd.Env) > 0 {
		env := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range cmd.Env {
			env.Content = append(env.Content, scalarNode(e.Key), scalarNode(e.Value))
		}
		addKV("environment", env)
	}

	if len(cmd.Volumes) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, spec := range cmd.Volumes {
			seq.Content = append(seq.Content, scalarNode(spec))
			if name, ok := namedVolumeSource(spec); ok {
				namedVolumes[name] = true
			}
		}
		addKV("volumes", seq)
	}

	if len(cmd.Networks) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, net := range cmd.Networks {
			seq.Content = append(seq.Content, scalarNode(net))
		}
		addKV("networks", seq)
	}

	if len(cmd.Labels) > 0 {
		labels := &yaml.Node{Kind: yaml.MappingNode}
		for _, l := range cmd.Labels {
			labels.Content = append(labels.Content, scalarNode(l.Key), scalarNode(l.Value))
		}
		addKV("labels", labels)
	}

	if cmd.Restart != "" {
		addKV("restart", scalarNode(cmd.Restart))
	}

	if len(cmd.Command) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range cmd.Command {
			seq.Content = append(seq.Content, scalarNode(c))
		}
		addKV("command", seq)
	}

	return node
}

// formatPortMapping renders a port mapping in compose short syntax.
func formatPortMapping(p PortMapping) string {
	var b strings.Builder
	if p.HostIP != "" {
		b.WriteString(p.HostIP)
		b.WriteString(":")
	}
	if p.HostPort != "" {
		b.WriteString(p.HostPort)
		b.WriteString(":")
	}
	b.WriteString(p.ContainerPort)
	if p.Protocol != "" && p.Protocol != "tcp" {
		b.WriteString("/")
		b.WriteString(p.Protocol)
	}
	return b.String()
}

// namedVolumeSource extracts the source of a mount spec when it refers to a
// named volume rather than a bind path or anonymous volume.
func namedVolumeSource(spec string) (string, bool) {
	source, _, found := strings.Cut(spec, ":")
	if !found || source == "" {
		return "", false
	}
	if strings.HasPrefix(source, "/") || strings.HasPrefix(source, ".") || strings.HasPrefix(source, "~") {
		return "", false
	}
	return source, true
}

// =============================================================================
// Node Helpers
// =============================================================================

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", v)}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}
}
