// Package remote implements the remote command surface: a closed
// dispatch table mapping a small command vocabulary onto Manager and
// Config calls. Dispatch is an explicit enum and switch, never
// reflection; the vocabulary is fixed and small enough that dispatching
// by name would buy nothing but an extra failure mode.
package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nurvus/nurvus/internal/config"
	"github.com/nurvus/nurvus/internal/manager"
	"github.com/nurvus/nurvus/internal/metrics"
)

// ClusterInfo is cluster info's answer: this node's own identity and the
// peer list it was configured with. No cluster consensus exists; peers
// are never contacted to produce this.
type ClusterInfo struct {
	NodeID string   `json:"node_id"`
	Peers  []string `json:"peers"`
}

// SystemStatus is the no-argument status command's answer: the same full
// status-plus-platform body GET /api/system/status serves.
type SystemStatus struct {
	Platform  metrics.PlatformInfo `json:"platform"`
	Processes []manager.Summary    `json:"processes"`
}

// Dispatcher answers the fixed command vocabulary against a single node's
// Manager and declared settings.
type Dispatcher struct {
	mgr      *manager.Manager
	settings config.Settings
	nodeID   string
	peers    []string
}

func NewDispatcher(mgr *manager.Manager, settings config.Settings, nodeID string, peers []string) *Dispatcher {
	return &Dispatcher{mgr: mgr, settings: settings, nodeID: nodeID, peers: peers}
}

// Dispatch parses argv (the words after the binary name) against the
// closed vocabulary and returns the JSON-encodable result. An unrecognized
// command is reported as an error; callers translate that to exit code 1.
func (d *Dispatcher) Dispatch(ctx context.Context, argv []string) (any, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("unknown command: (empty)")
	}

	switch argv[0] {
	case "status":
		if len(argv) != 1 {
			return nil, fmt.Errorf("status takes no arguments")
		}
		return SystemStatus{Platform: metrics.CurrentPlatform(), Processes: d.mgr.ListProcesses()}, nil

	case "list":
		return d.mgr.ListProcesses(), nil

	case "start":
		if len(argv) != 2 {
			return nil, fmt.Errorf("start requires exactly one <id>")
		}
		if err := d.mgr.StartProcess(ctx, argv[1]); err != nil {
			return nil, err
		}
		return d.ack("started"), nil

	case "stop":
		if len(argv) != 2 {
			return nil, fmt.Errorf("stop requires exactly one <id>")
		}
		if err := d.mgr.StopProcess(ctx, argv[1]); err != nil {
			return nil, err
		}
		return d.ack("stopped"), nil

	case "restart":
		if len(argv) != 2 {
			return nil, fmt.Errorf("restart requires exactly one <id>")
		}
		if err := d.mgr.RestartProcess(ctx, argv[1]); err != nil {
			return nil, err
		}
		return d.ack("restarted"), nil

	case "config":
		return d.dispatchConfig(argv[1:])

	case "cluster":
		if len(argv) != 2 || argv[1] != "info" {
			return nil, fmt.Errorf("unknown command: cluster %v", argv[1:])
		}
		return ClusterInfo{NodeID: d.nodeID, Peers: d.peers}, nil

	default:
		return nil, fmt.Errorf("unknown command: %s", argv[0])
	}
}

func (d *Dispatcher) dispatchConfig(argv []string) (any, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("unknown command: config (missing subcommand)")
	}
	switch argv[0] {
	case "get":
		if len(argv) != 2 {
			return nil, fmt.Errorf("config get requires exactly one <key>")
		}
		return d.configGet(argv[1])
	case "list":
		return d.settings, nil
	default:
		return nil, fmt.Errorf("unknown command: config %s", argv[0])
	}
}

func (d *Dispatcher) configGet(key string) (any, error) {
	switch key {
	case "port":
		return d.settings.Port, nil
	case "config_file":
		return d.settings.ConfigFile, nil
	case "log_dir":
		return d.settings.LogDir, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

type ackBody struct {
	Status string `json:"status"`
}

func (d *Dispatcher) ack(status string) any { return ackBody{Status: status} }

// EncodeResult renders a Dispatch result as indented JSON for CLI output.
func EncodeResult(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
