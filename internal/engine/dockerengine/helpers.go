package dockerengine

import (
	"bufio"
	"encoding/json"
	"io"

	"docktail/internal/engine"

	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

func toEngineMount(m engine.MountSpec) mount.Mount {
	var typ mount.Type
	switch m.Type {
	case "bind":
		typ = mount.TypeBind
	case "tmpfs":
		typ = mount.TypeTmpfs
	default:
		typ = mount.TypeVolume
	}
	return mount.Mount{
		Type:     typ,
		Source:   m.Source,
		Target:   m.Target,
		ReadOnly: m.ReadOnly,
	}
}

// statsFrame is the subset of the engine's JSON stats payload this adapter
// extracts; the rest is dropped on the floor rather than modeled in full.
type statsFrame struct {
	Read     string `json:"read"`
	CPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
		OnlineCPUs  uint64 `json:"online_cpus"`
	} `json:"cpu_stats"`
	PreCPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
	} `json:"precpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Limit uint64 `json:"limit"`
	} `json:"memory_stats"`
	Networks map[string]struct {
		RxBytes uint64 `json:"rx_bytes"`
		TxBytes uint64 `json:"tx_bytes"`
	} `json:"networks"`
}

type statsDecoder struct {
	dec *json.Decoder
}

func newStatsDecoder(r io.Reader) *statsDecoder {
	return &statsDecoder{dec: json.NewDecoder(bufio.NewReader(r))}
}

func (d *statsDecoder) next() (engine.Stats, bool) {
	var frame statsFrame
	if err := d.dec.Decode(&frame); err != nil {
		return engine.Stats{}, false
	}

	var cpuPercent float64
	cpuDelta := float64(frame.CPUStats.CPUUsage.TotalUsage) - float64(frame.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(frame.CPUStats.SystemUsage) - float64(frame.PreCPUStats.SystemUsage)
	if sysDelta > 0 && cpuDelta > 0 {
		cpus := float64(frame.CPUStats.OnlineCPUs)
		if cpus == 0 {
			cpus = 1
		}
		cpuPercent = (cpuDelta / sysDelta) * cpus * 100.0
	}

	var rx, tx uint64
	for _, n := range frame.Networks {
		rx += n.RxBytes
		tx += n.TxBytes
	}

	return engine.Stats{
		CPUPercent:    cpuPercent,
		MemoryUsage:   frame.MemoryStats.Usage,
		MemoryLimit:   frame.MemoryStats.Limit,
		NetworkRxByte: rx,
		NetworkTxByte: tx,
	}, true
}

// hijackedExecStream adapts the engine's hijacked exec connection to
// engine.ExecStream.
type hijackedExecStream struct {
	resp client.HijackedResponse
}

func (h *hijackedExecStream) Read(p []byte) (int, error)  { return h.resp.Reader.Read(p) }
func (h *hijackedExecStream) Write(p []byte) (int, error) { return h.resp.Conn.Write(p) }
func (h *hijackedExecStream) Close() error                { h.resp.Close(); return nil }
