package compose

import (
	"fmt"
	"strconv"
	"strings"

	"docktail/internal/engine"
)

// parseEnvironment reads a service's `environment:` key in either list
// form (`KEY=VALUE` strings taken as-is) or map form (`KEY: value`,
// stringifying bool/int/float values and lowering an explicit null to
// an empty string). Any other value shape for a map entry is skipped.
func parseEnvironment(svc map[string]interface{}) []string {
	raw, ok := svc["environment"]
	if !ok {
		return nil
	}

	if seq, ok := asSlice(raw); ok {
		var env []string
		for _, item := range seq {
			if s, ok := asString(item); ok {
				env = append(env, s)
			}
		}
		return env
	}

	if m, ok := asMap(raw); ok {
		var env []string
		for key, v := range m {
			var val string
			switch vv := v.(type) {
			case string:
				val = vv
			case bool:
				val = strconv.FormatBool(vv)
			case int:
				val = strconv.Itoa(vv)
			case int64:
				val = strconv.FormatInt(vv, 10)
			case float64:
				val = strconv.FormatFloat(vv, 'f', -1, 64)
			case nil:
				val = ""
			default:
				continue
			}
			env = append(env, fmt.Sprintf("%s=%s", key, val))
		}
		return env
	}

	return nil
}

// parsePorts reads a service's `ports:` sequence, in either short string
// syntax ("80", "8080:80", "127.0.0.1:8080:80", each optionally
// "/udp"-suffixed) or long/object syntax
// ({target, published, protocol, mode}). Entries with a non-positive
// target port are dropped.
func parsePorts(svc map[string]interface{}) []engine.PortSpec {
	seq, ok := asSlice(svc["ports"])
	if !ok {
		return nil
	}

	var out []engine.PortSpec
	for _, item := range seq {
		if portStr, ok := asString(item); ok {
			main, protocol := portStr, "tcp"
			if idx := strings.LastIndex(portStr, "/"); idx >= 0 {
				main, protocol = portStr[:idx], portStr[idx+1:]
			}

			parts := strings.Split(main, ":")
			var published, target int64
			switch len(parts) {
			case 1:
				target = atoiOr(parts[0], 0)
			case 2:
				published = atoiOr(parts[0], 0)
				target = atoiOr(parts[1], 0)
			case 3:
				// parts[0] is the host IP, ignored for swarm ingress.
				published = atoiOr(parts[1], 0)
				target = atoiOr(parts[2], 0)
			default:
				continue
			}
			if target <= 0 {
				continue
			}

			out = append(out, engine.PortSpec{
				Target:    int(target),
				Published: int(published),
				Protocol:  normalizeProtocol(protocol),
				Mode:      "ingress",
			})
			continue
		}

		if portMap, ok := asMap(item); ok {
			target, _ := asInt64(portMap["target"])
			published, _ := asInt64(portMap["published"])
			if target <= 0 {
				continue
			}
			out = append(out, engine.PortSpec{
				Target:    int(target),
				Published: int(published),
				Protocol:  normalizeProtocol(stringOr(portMap["protocol"], "tcp")),
				Mode:      normalizeMode(stringOr(portMap["mode"], "ingress")),
			})
		}
	}
	return out
}

func normalizeProtocol(p string) string {
	if p == "udp" {
		return "udp"
	}
	return "tcp"
}

func normalizeMode(m string) string {
	if m == "host" {
		return "host"
	}
	return "ingress"
}

func atoiOr(s string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def
	}
	return n
}

// parseNetworks reads a service's `networks:` key. Missing entirely, it
// defaults to attaching the stack's implicit default network. List and
// map forms both resolve each named network through externalNetworks
// (alias → real name) before falling back to the stack-prefixed name;
// map-form network configuration (aliases, etc.) is not modeled.
func parseNetworks(svc map[string]interface{}, stackName string, externalNetworks map[string]string) []string {
	raw, ok := svc["networks"]
	if !ok {
		return []string{stackName + "_default"}
	}

	resolve := func(name string) string {
		if ext, ok := externalNetworks[name]; ok {
			return ext
		}
		return stackName + "_" + name
	}

	if seq, ok := asSlice(raw); ok {
		var out []string
		for _, item := range seq {
			if name, ok := asString(item); ok {
				out = append(out, resolve(name))
			}
		}
		return out
	}

	if m, ok := asMap(raw); ok {
		var out []string
		for name := range m {
			out = append(out, resolve(name))
		}
		return out
	}

	return nil
}

// parseCommand reads a service's `command:`, wrapping a bare string in a
// shell invocation and passing a list through as-is.
func parseCommand(svc map[string]interface{}) []string {
	raw, ok := svc["command"]
	if !ok {
		return nil
	}
	if s, ok := asString(raw); ok {
		return []string{"/bin/sh", "-c", s}
	}
	if seq, ok := asSlice(raw); ok {
		var out []string
		for _, item := range seq {
			if s, ok := asString(item); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// parseVolumes reads a service's `volumes:` sequence of mounts, in
// short string syntax ("name:/target[:ro|:rw]", "/host:/target",
// "/target" anonymous) or long/object syntax
// ({type, source, target, read_only}).
func parseVolumes(svc map[string]interface{}, stackName string, externalVolumes map[string]string) []engine.MountSpec {
	seq, ok := asSlice(svc["volumes"])
	if !ok {
		return nil
	}

	resolveVolumeSource := func(source string) string {
		if ext, ok := externalVolumes[source]; ok {
			return ext
		}
		return stackName + "_" + source
	}

	var out []engine.MountSpec
	for _, item := range seq {
		if volStr, ok := asString(item); ok {
			main, readOnly := volStr, false
			switch {
			case strings.HasSuffix(volStr, ":ro"):
				main, readOnly = volStr[:len(volStr)-3], true
			case strings.HasSuffix(volStr, ":rw"):
				main, readOnly = volStr[:len(volStr)-3], false
			}

			parts := strings.SplitN(main, ":", 2)
			if len(parts) == 2 {
				sourceRaw, target := parts[0], parts[1]
				var typ, source string
				switch {
				case strings.HasPrefix(sourceRaw, "/") || strings.HasPrefix(sourceRaw, "."):
					typ, source = "bind", sourceRaw
				default:
					typ, source = "volume", resolveVolumeSource(sourceRaw)
				}
				out = append(out, engine.MountSpec{Type: typ, Source: source, Target: target, ReadOnly: readOnly})
			} else {
				// Single path — anonymous volume, no source.
				out = append(out, engine.MountSpec{Type: "volume", Target: parts[0]})
			}
			continue
		}

		if volMap, ok := asMap(item); ok {
			typStr := stringOr(volMap["type"], "volume")
			sourceRaw := stringOr(volMap["source"], "")
			target := stringOr(volMap["target"], "")
			if target == "" {
				continue
			}
			readOnly, _ := asBool(volMap["read_only"])

			typ := "volume"
			switch typStr {
			case "bind":
				typ = "bind"
			case "tmpfs":
				typ = "tmpfs"
			}

			source := sourceRaw
			if typStr == "volume" && sourceRaw != "" && !strings.HasPrefix(sourceRaw, "/") {
				source = resolveVolumeSource(sourceRaw)
			}

			out = append(out, engine.MountSpec{Type: typ, Source: source, Target: target, ReadOnly: readOnly})
		}
	}
	return out
}
