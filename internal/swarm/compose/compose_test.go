package compose

import (
	"context"
	"testing"

	"docktail/internal/engine"
	"docktail/internal/engine/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployResult_Message(t *testing.T) {
	ok := DeployResult{ServiceIDs: []string{"s1"}, NetworkNames: []string{"n1"}, VolumeNames: []string{"v1"}}
	assert.Equal(t, "Stack 'mystack' deployed: 1 services, 1 networks, 1 volumes", ok.Message("mystack"))

	partial := DeployResult{Failed: []string{"svc/x: boom"}}
	assert.Equal(t, "Stack 'mystack' partially deployed: 1 failed", partial.Message("mystack"))

	empty := DeployResult{}
	assert.Equal(t, "Stack 'mystack' deployed: 0 services, 0 networks, 0 volumes", empty.Message("mystack"))
}

func TestParseEnvironment(t *testing.T) {
	t.Run("list form", func(t *testing.T) {
		svc := map[string]interface{}{"environment": []interface{}{"A=1", "B=2"}}
		assert.ElementsMatch(t, []string{"A=1", "B=2"}, parseEnvironment(svc))
	})

	t.Run("map form with multiple types", func(t *testing.T) {
		svc := map[string]interface{}{"environment": map[string]interface{}{
			"STR":  "hello",
			"BOOL": true,
			"INT":  int64(42),
		}}
		assert.ElementsMatch(t, []string{"STR=hello", "BOOL=true", "INT=42"}, parseEnvironment(svc))
	})

	t.Run("map with null value becomes empty string", func(t *testing.T) {
		svc := map[string]interface{}{"environment": map[string]interface{}{"KEY": nil}}
		assert.Equal(t, []string{"KEY="}, parseEnvironment(svc))
	})

	t.Run("map with float value", func(t *testing.T) {
		svc := map[string]interface{}{"environment": map[string]interface{}{"PI": 3.5}}
		assert.Equal(t, []string{"PI=3.5"}, parseEnvironment(svc))
	})

	t.Run("missing key", func(t *testing.T) {
		assert.Empty(t, parseEnvironment(map[string]interface{}{}))
	})
}

func TestParsePorts(t *testing.T) {
	t.Run("simple string", func(t *testing.T) {
		svc := map[string]interface{}{"ports": []interface{}{"8080:80"}}
		got := parsePorts(svc)
		require.Len(t, got, 1)
		assert.Equal(t, engine.PortSpec{Target: 80, Published: 8080, Protocol: "tcp", Mode: "ingress"}, got[0])
	})

	t.Run("with protocol", func(t *testing.T) {
		svc := map[string]interface{}{"ports": []interface{}{"53:53/udp"}}
		got := parsePorts(svc)
		require.Len(t, got, 1)
		assert.Equal(t, "udp", got[0].Protocol)
	})

	t.Run("target only", func(t *testing.T) {
		svc := map[string]interface{}{"ports": []interface{}{"80"}}
		got := parsePorts(svc)
		require.Len(t, got, 1)
		assert.Equal(t, 0, got[0].Published)
		assert.Equal(t, 80, got[0].Target)
	})

	t.Run("host ip published target", func(t *testing.T) {
		svc := map[string]interface{}{"ports": []interface{}{"0.0.0.0:8080:80"}}
		got := parsePorts(svc)
		require.Len(t, got, 1)
		assert.Equal(t, 8080, got[0].Published)
		assert.Equal(t, 80, got[0].Target)
	})

	t.Run("map format with host mode", func(t *testing.T) {
		svc := map[string]interface{}{"ports": []interface{}{
			map[string]interface{}{"target": int64(80), "published": int64(8080), "mode": "host"},
		}}
		got := parsePorts(svc)
		require.Len(t, got, 1)
		assert.Equal(t, "host", got[0].Mode)
	})

	t.Run("missing", func(t *testing.T) {
		assert.Empty(t, parsePorts(map[string]interface{}{}))
	})
}

func TestParseNetworks(t *testing.T) {
	t.Run("list form", func(t *testing.T) {
		svc := map[string]interface{}{"networks": []interface{}{"frontend", "backend"}}
		got := parseNetworks(svc, "mystack", map[string]string{})
		assert.ElementsMatch(t, []string{"mystack_frontend", "mystack_backend"}, got)
	})

	t.Run("map form", func(t *testing.T) {
		svc := map[string]interface{}{"networks": map[string]interface{}{
			"frontend": map[string]interface{}{"aliases": []interface{}{"web"}},
		}}
		got := parseNetworks(svc, "mystack", map[string]string{})
		assert.Contains(t, got, "mystack_frontend")
	})

	t.Run("external alias override", func(t *testing.T) {
		svc := map[string]interface{}{"networks": []interface{}{"shared"}}
		got := parseNetworks(svc, "mystack", map[string]string{"shared": "preexisting_net"})
		assert.Equal(t, []string{"preexisting_net"}, got)
	})

	t.Run("missing defaults to default network", func(t *testing.T) {
		got := parseNetworks(map[string]interface{}{}, "mystack", map[string]string{})
		assert.Equal(t, []string{"mystack_default"}, got)
	})
}

func TestParseCommand(t *testing.T) {
	t.Run("string wraps in shell", func(t *testing.T) {
		svc := map[string]interface{}{"command": "echo hi"}
		assert.Equal(t, []string{"/bin/sh", "-c", "echo hi"}, parseCommand(svc))
	})

	t.Run("list as-is", func(t *testing.T) {
		svc := map[string]interface{}{"command": []interface{}{"echo", "hi"}}
		assert.Equal(t, []string{"echo", "hi"}, parseCommand(svc))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Nil(t, parseCommand(map[string]interface{}{}))
	})
}

func TestParseVolumes(t *testing.T) {
	t.Run("named volume", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"data:/var/lib/data"}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, engine.MountSpec{Type: "volume", Source: "mystack_data", Target: "/var/lib/data"}, got[0])
	})

	t.Run("bind mount absolute path", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"/host/path:/container/path"}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, "bind", got[0].Type)
		assert.Equal(t, "/host/path", got[0].Source)
	})

	t.Run("relative bind mount", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"./local:/app"}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, "bind", got[0].Type)
		assert.Equal(t, "./local", got[0].Source)
	})

	t.Run("ro suffix", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"data:/var/lib/data:ro"}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.True(t, got[0].ReadOnly)
	})

	t.Run("rw suffix", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"data:/var/lib/data:rw"}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.False(t, got[0].ReadOnly)
	})

	t.Run("external volume alias", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"shared:/data"}}
		got := parseVolumes(svc, "mystack", map[string]string{"shared": "preexisting_vol"})
		require.Len(t, got, 1)
		assert.Equal(t, "preexisting_vol", got[0].Source)
	})

	t.Run("target only anonymous volume", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{"/var/log"}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, "volume", got[0].Type)
		assert.Empty(t, got[0].Source)
		assert.Equal(t, "/var/log", got[0].Target)
	})

	t.Run("map format bind", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{
			map[string]interface{}{"type": "bind", "source": "/host", "target": "/container", "read_only": true},
		}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, engine.MountSpec{Type: "bind", Source: "/host", Target: "/container", ReadOnly: true}, got[0])
	})

	t.Run("map format tmpfs no source", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{
			map[string]interface{}{"type": "tmpfs", "target": "/tmp/cache"},
		}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, "tmpfs", got[0].Type)
		assert.Empty(t, got[0].Source)
	})

	t.Run("map format volume stack-prefixed", func(t *testing.T) {
		svc := map[string]interface{}{"volumes": []interface{}{
			map[string]interface{}{"type": "volume", "source": "data", "target": "/var/lib/data"},
		}}
		got := parseVolumes(svc, "mystack", map[string]string{})
		require.Len(t, got, 1)
		assert.Equal(t, "mystack_data", got[0].Source)
	})

	t.Run("missing", func(t *testing.T) {
		assert.Empty(t, parseVolumes(map[string]interface{}{}, "mystack", map[string]string{}))
	})
}

const sampleCompose = `
networks:
  frontend:
    driver: overlay
  shared:
    external:
      name: preexisting_net
volumes:
  data:
    driver: local
services:
  web:
    image: nginx:latest
    deploy:
      replicas: 2
    environment:
      - FOO=bar
    ports:
      - "8080:80"
    networks:
      - frontend
    volumes:
      - data:/var/lib/data
  broken:
    deploy:
      replicas: 1
`

func TestDeploy_CreatesResourcesAndReportsPartialFailure(t *testing.T) {
	eng := fake.New()
	d := New(eng)

	result := d.Deploy(context.Background(), "mystack", sampleCompose)

	assert.Contains(t, result.NetworkNames, "mystack_default")
	assert.Contains(t, result.NetworkNames, "mystack_frontend")
	assert.NotContains(t, result.NetworkNames, "mystack_shared")
	assert.Contains(t, result.VolumeNames, "mystack_data")
	require.Len(t, result.ServiceIDs, 1)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0], "mystack_broken: no image specified")
	assert.False(t, result.Success())
	assert.Contains(t, result.Message("mystack"), "partially deployed")

	services, err := eng.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	svc := services[0]
	assert.Equal(t, "mystack_web", svc.Name)
	assert.Equal(t, 2, svc.Replicas)
	assert.Equal(t, "mystack", svc.Labels[stackNamespaceLabel])
}

func TestDeploy_InvalidYAMLReportsSingleFailure(t *testing.T) {
	eng := fake.New()
	d := New(eng)

	result := d.Deploy(context.Background(), "mystack", "{not: valid: yaml: [")
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0], "failed to parse compose YAML")
	assert.Empty(t, result.ServiceIDs)
	assert.Empty(t, result.NetworkNames)
}

func TestStackFileStore_RetainsRegardlessOfOutcome(t *testing.T) {
	eng := fake.New()
	d := New(eng)
	store := NewStackFileStore()

	result := d.DeployAndRetain(context.Background(), store, "mystack", sampleCompose)
	assert.False(t, result.Success())

	got, ok := store.Get("mystack")
	require.True(t, ok)
	assert.Equal(t, sampleCompose, got)

	_, ok = store.Get("unknown")
	assert.False(t, ok)
}
