package transcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const twoServiceManifest = `
services:
  web:
    image: nginx:latest
    ports:
      - "8080:80"
    depends_on:
      - api

  api:
    image: myapp:1.0
    environment:
      DB_HOST: db
`

const manifestWithVolume = `
services:
  db:
    image: postgres:15
    volumes:
      - pgdata:/var/lib/postgresql/data

volumes:
  pgdata:
`

// =============================================================================
// ToCommands Tests
// =============================================================================

func TestToCommands_TwoServices(t *testing.T) {
	commands, err := ToCommands(twoServiceManifest)
	require.NoError(t, err)
	require.Len(t, commands, 2)

	// Deterministic ordering: services sorted by name.
	assert.Contains(t, commands[0], "--name api")
	assert.Contains(t, commands[0], "myapp:1.0")
	assert.Contains(t, commands[0], "-e DB_HOST=db")
	assert.Contains(t, commands[1], "--name web")
	assert.Contains(t, commands[1], "-p 8080:80")
}

func TestToCommands_NamedVolumeEmitsVolumeCreate(t *testing.T) {
	commands, err := ToCommands(manifestWithVolume)
	require.NoError(t, err)
	require.Len(t, commands, 2)

	assert.Equal(t, "docker volume create pgdata", commands[0])
	assert.Contains(t, commands[1], "-v pgdata:/var/lib/postgresql/data")
}

func TestToCommands_EmptyInput(t *testing.T) {
	_, err := ToCommands("   \n\t  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestToCommands_InvalidYAML(t *testing.T) {
	_, err := ToCommands("services:\n  web:\n   image: [unclosed")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestToCommands_NoServices(t *testing.T) {
	_, err := ToCommands("volumes:\n  data:\n")
	require.Error(t, err)
}

func TestToCommands_RestartAndUDPPort(t *testing.T) {
	manifest := `
services:
  dns:
    image: coredns/coredns:1.11
    ports:
      - "53:53/udp"
    restart: unless-stopped
`
	commands, err := ToCommands(manifest)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Contains(t, commands[0], "-p 53:53/udp")
	assert.Contains(t, commands[0], "--restart unless-stopped")
}

// =============================================================================
// ParseRunCommand Tests
// =============================================================================

func TestParseRunCommand_FullFlags(t *testing.T) {
	cmd, err := ParseRunCommand(
		`docker run -d --name web --hostname edge -p 127.0.0.1:8080:80 -e MODE=prod ` +
			`-v site:/usr/share/nginx/html --network frontend --restart always nginx:latest nginx -g 'daemon off;'`)
	require.NoError(t, err)

	assert.Equal(t, "nginx:latest", cmd.Image)
	assert.Equal(t, "web", cmd.Name)
	assert.Equal(t, "edge", cmd.Hostname)
	assert.True(t, cmd.Detach)
	assert.Equal(t, []string{"nginx", "-g", "daemon off;"}, cmd.Command)
	assert.Equal(t, []string{"site:/usr/share/nginx/html"}, cmd.Volumes)
	assert.Equal(t, []string{"frontend"}, cmd.Networks)
	assert.Equal(t, "always", cmd.Restart)

	require.Len(t, cmd.Ports, 1)
	assert.Equal(t, "127.0.0.1", cmd.Ports[0].HostIP)
	assert.Equal(t, "8080", cmd.Ports[0].HostPort)
	assert.Equal(t, "80", cmd.Ports[0].ContainerPort)

	require.Len(t, cmd.Env, 1)
	assert.Equal(t, "MODE", cmd.Env[0].Key)
	assert.Equal(t, "prod", cmd.Env[0].Value)
}

func TestParseRunCommand_InlineValuesAndCombinedShorts(t *testing.T) {
	cmd, err := ParseRunCommand(`docker run -itd --env=TERM=xterm --rm alpine:3.20 sh`)
	require.NoError(t, err)

	assert.True(t, cmd.Detach)
	assert.True(t, cmd.AutoRemove)
	assert.Equal(t, "alpine:3.20", cmd.Image)
	require.Len(t, cmd.Env, 1)
	assert.Equal(t, "TERM", cmd.Env[0].Key)
	assert.Equal(t, "xterm", cmd.Env[0].Value)
}

func TestParseRunCommand_ContainerRunAlias(t *testing.T) {
	cmd, err := ParseRunCommand("docker container run redis:7")
	require.NoError(t, err)
	assert.Equal(t, "redis:7", cmd.Image)
}

func TestParseRunCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"empty", "   ", ErrEmptyInput},
		{"not docker", "kubectl run web", ErrNotRunCommand},
		{"not run", "docker ps -a", ErrNotRunCommand},
		{"unknown flag", "docker run --gpus all nvidia/cuda", ErrUnknownFlag},
		{"missing image", "docker run -d --name web", ErrMissingImage},
		{"bad port", "docker run -p not-a-port nginx", ErrInvalidPort},
		{"dangling value", "docker run --name", ErrNotRunCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRunCommand(tt.line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestParseVolumeCreate(t *testing.T) {
	name, ok := ParseVolumeCreate("docker volume create data")
	require.True(t, ok)
	assert.Equal(t, "data", name)

	_, ok = ParseVolumeCreate("docker run nginx")
	assert.False(t, ok)

	_, ok = ParseVolumeCreate("docker volume create")
	assert.False(t, ok)
}

// =============================================================================
// ToManifest Tests
// =============================================================================

func TestToManifest_TwoServices(t *testing.T) {
	manifest, err := ToManifest([]string{
		"docker run -d --name web -p 8080:80 nginx:latest",
		"docker run -d --name api -e DB_HOST=db myapp:1.0",
	}, Options{})
	require.NoError(t, err)

	assert.Contains(t, manifest, "services:")
	assert.Contains(t, manifest, "web:")
	assert.Contains(t, manifest, "api:")
	assert.Contains(t, manifest, "image: nginx:latest")
	assert.Contains(t, manifest, `"8080:80"`)
	assert.Contains(t, manifest, "DB_HOST: db")
}

func TestToManifest_NamedVolume(t *testing.T) {
	manifest, err := ToManifest([]string{
		"docker run -d -v pgdata:/var/lib/postgresql/data postgres:15",
	}, Options{})
	require.NoError(t, err)

	assert.Contains(t, manifest, "volumes:\n  pgdata:")
	assert.NotContains(t, manifest, "external")
}

func TestToManifest_ExternalVolumeAnnotated(t *testing.T) {
	manifest, err := ToManifest([]string{
		"docker run -d -v data:/data busybox",
	}, Options{ExternalVolumes: []string{"data"}})
	require.NoError(t, err)

	assert.Contains(t, manifest, "external: true")
	assert.Contains(t, manifest, "name: data")
	assert.Contains(t, manifest, "# "+VolumeAnnotationComment("data"))
}

func TestToManifest_BindMountNotNamedVolume(t *testing.T) {
	manifest, err := ToManifest([]string{
		"docker run -d -v /srv/site:/usr/share/nginx/html nginx",
	}, Options{})
	require.NoError(t, err)

	assert.NotContains(t, manifest, "\nvolumes:")
}

func TestToManifest_UnnamedServicesKeyedByImage(t *testing.T) {
	manifest, err := ToManifest([]string{
		"docker run -d redis:7",
		"docker run -d redis:6",
	}, Options{})
	require.NoError(t, err)

	assert.Contains(t, manifest, "redis:")
	assert.Contains(t, manifest, "redis-2:")
}

func TestToManifest_Empty(t *testing.T) {
	_, err := ToManifest(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// =============================================================================
// Round Trip
// =============================================================================

func TestRoundTrip_SemanticEquivalence(t *testing.T) {
	commands, err := ToCommands(twoServiceManifest)
	require.NoError(t, err)

	manifest, err := ToManifest(commands, Options{})
	require.NoError(t, err)

	// The regenerated manifest must parse and keep services, images, ports.
	again, err := ToCommands(manifest)
	require.NoError(t, err)
	require.Len(t, again, 2)

	joined := strings.Join(again, "\n")
	assert.Contains(t, joined, "--name api")
	assert.Contains(t, joined, "--name web")
	assert.Contains(t, joined, "myapp:1.0")
	assert.Contains(t, joined, "nginx:latest")
	assert.Contains(t, joined, "-p 8080:80")
}
