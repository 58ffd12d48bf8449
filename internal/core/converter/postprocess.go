package converter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/the-snesler/samnesler.com/internal/core/transcode"
)

// =============================================================================
// Output Post-Processing
// =============================================================================

// joinCommands joins command strings with exactly one blank line between
// entries so successive commands read as separate paragraphs.
func joinCommands(commands []string) string {
	trimmed := make([]string, 0, len(commands))
	for _, c := range commands {
		c = strings.TrimSpace(c)
		if c != "" {
			trimmed = append(trimmed, c)
		}
	}
	return strings.Join(trimmed, "\n\n")
}

// splitCommands splits command text on blank-line boundaries into individual
// trimmed command strings, discarding empties.
func splitCommands(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var commands []string
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			commands = append(commands, block)
		}
	}
	return commands
}

// stripVolumeAnnotations removes the redundant external/name annotations and
// the advisory comment that the transcoder attaches to volume blocks for the
// given names. The manifest form already uses the bare name as the key, so
// those lines carry no information.
//
// The pass operates on the parsed YAML document rather than regex over the
// serialized text, so it keeps working if the transcoder's formatting
// changes.
func stripVolumeAnnotations(manifest string, volumeNames []string) (string, error) {
	if len(volumeNames) == 0 {
		return manifest, nil
	}

	strip := make(map[string]bool, len(volumeNames))
	for _, name := range volumeNames {
		strip[name] = true
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(manifest), &doc); err != nil {
		return "", err
	}
	if len(doc.Content) == 0 {
		return manifest, nil
	}

	root := doc.Content[0]
	volumes := mappingValue(root, "volumes")
	if volumes == nil || volumes.Kind != yaml.MappingNode {
		return manifest, nil
	}

	for i := 0; i+1 < len(volumes.Content); i += 2 {
		key := volumes.Content[i]
		if !strip[key.Value] {
			continue
		}
		key.HeadComment = ""
		value := volumes.Content[i+1]
		if value.Kind == yaml.MappingNode {
			value.Content = removeMappingKeys(value.Content, "external", "name")
			if len(value.Content) == 0 {
				volumes.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// mappingValue returns the value node for a key in a mapping node.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// removeMappingKeys drops the named keys from mapping content.
func removeMappingKeys(content []*yaml.Node, keys ...string) []*yaml.Node {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	kept := content[:0]
	for i := 0; i+1 < len(content); i += 2 {
		if drop[content[i].Value] {
			continue
		}
		kept = append(kept, content[i], content[i+1])
	}
	return kept
}

// insertSectionBreaks inserts a blank line before each top-level manifest key
// that follows one or more indented lines, so sections read separately.
func insertSectionBreaks(manifest string) string {
	lines := strings.Split(strings.TrimRight(manifest, "\n"), "\n")
	var out []string
	prevIndented := false
	for _, line := range lines {
		topLevel := line != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t")
		if topLevel && prevIndented {
			out = append(out, "")
		}
		out = append(out, line)
		prevIndented = line != "" && !topLevel
	}
	return strings.Join(out, "\n") + "\n"
}

// extractVolumeCreates partitions command blocks into volume names created
// via the fixed docker volume create prefix and the remaining run commands.
func extractVolumeCreates(commands []string) (volumes []string, runs []string) {
	for _, cmd := range commands {
		if name, ok := transcode.ParseVolumeCreate(cmd); ok {
			volumes = append(volumes, name)
			continue
		}
		runs = append(runs, cmd)
	}
	return volumes, runs
}
