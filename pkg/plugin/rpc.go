package plugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/parruda/swarm-sub004/pkg/hook"
	"github.com/parruda/swarm-sub004/pkg/tool"
)

// Handshake mirrors the teacher's magic-cookie convention
// (pkg/plugins/grpc/loader.go) so an out-of-process binary and this
// host agree they're speaking the same plugin protocol before any RPC
// happens.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SWARM_ENGINE_PLUGIN",
	MagicCookieValue: "swarm_engine_plugin_v1",
}

// remotePlugin is a go-plugin net/rpc dispenser for Plugin. Unlike the
// teacher's gRPC transport (which needs generated .proto stubs per
// plugin type), this uses go-plugin's plain net/rpc mode: every method
// call is a gob-encoded Call/Reply pair, which fits a single Plugin
// interface without a code generator.
//
// Cross-process tool/hook registration is not supported: *tool.Registry
// and *hook.Registry hold live mutexes and closures that cannot cross
// an RPC boundary, so OnAgentInitialized is a no-op for RPC-loaded
// plugins. A plugin that needs to register tools must be linked
// in-process (see memoryplugin for the pattern).
type remotePlugin struct {
	Impl Plugin
}

func (p *remotePlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

func (p *remotePlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

var _ goplugin.Plugin = (*remotePlugin)(nil)

// rpcServer runs in the plugin subprocess, forwarding RPC calls to the
// real implementation.
type rpcServer struct {
	impl Plugin
}

type createStorageArgs struct {
	AgentName string
	Config    map[string]any
}

type onUserMessageArgs struct {
	AgentName string
	Prompt    string
}

func (s *rpcServer) Name(_ struct{}, reply *string) error {
	*reply = s.impl.Name()
	return nil
}

func (s *rpcServer) CreateStorage(args createStorageArgs, reply *struct{}) error {
	// Remote storage handles are not addressable from the host; the
	// subprocess keeps ownership and the host only needs the
	// acknowledgement that creation succeeded.
	_, err := s.impl.CreateStorage(context.Background(), args.AgentName, args.Config)
	return err
}

func (s *rpcServer) OnUserMessage(args onUserMessageArgs, reply *[]string) error {
	reminders, err := s.impl.OnUserMessage(context.Background(), args.AgentName, args.Prompt)
	if err != nil {
		return err
	}
	*reply = reminders
	return nil
}

func (s *rpcServer) Shutdown(_ struct{}, _ *struct{}) error {
	return s.impl.Shutdown(context.Background())
}

// rpcClient runs host-side, implementing Plugin by forwarding every
// call over net/rpc to the subprocess.
type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Name() string {
	var reply string
	if err := c.client.Call("Plugin.Name", struct{}{}, &reply); err != nil {
		return ""
	}
	return reply
}

func (c *rpcClient) CreateStorage(ctx context.Context, agentName string, config map[string]any) (Storage, error) {
	var reply struct{}
	err := c.client.Call("Plugin.CreateStorage", createStorageArgs{AgentName: agentName, Config: config}, &reply)
	return noopStorage{}, err
}

func (c *rpcClient) OnAgentInitialized(ctx context.Context, agentName string, storage Storage, registry *tool.Registry, hooks *hook.Registry) error {
	// See remotePlugin's doc comment: tool/hook registration cannot
	// cross the RPC boundary.
	return nil
}

func (c *rpcClient) OnUserMessage(ctx context.Context, agentName, prompt string) ([]string, error) {
	var reply []string
	err := c.client.Call("Plugin.OnUserMessage", onUserMessageArgs{AgentName: agentName, Prompt: prompt}, &reply)
	return reply, err
}

func (c *rpcClient) Shutdown(ctx context.Context) error {
	var reply struct{}
	return c.client.Call("Plugin.Shutdown", struct{}{}, &reply)
}

var _ Plugin = (*rpcClient)(nil)

// noopStorage stands in for a Storage living in the plugin subprocess;
// the host has no handle to it beyond the CreateStorage acknowledgement.
type noopStorage struct{}

func (noopStorage) Close() error { return nil }

// Loader launches out-of-process plugin binaries over go-plugin's
// net/rpc transport (spec §9: "Plugin extension point"; grounded on
// teacher pkg/plugins/grpc/loader.go, adapted from gRPC to net/rpc to
// avoid requiring generated protobuf stubs per plugin).
type Loader struct {
	logger hclog.Logger
}

// NewLoader builds a Loader with a quiet hclog logger, matching the
// teacher's NewGRPCLoader default.
func NewLoader() *Loader {
	return &Loader{logger: hclog.New(&hclog.LoggerOptions{Name: "swarm-plugin", Level: hclog.Warn})}
}

// Load spawns path as a subprocess and dispenses its Plugin implementation.
func (l *Loader) Load(path string) (Plugin, *goplugin.Client, error) {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         map[string]goplugin.Plugin{"plugin": &remotePlugin{}},
		Cmd:             pluginCommand(path),
		Logger:          l.logger,
		AllowedProtocols: []goplugin.Protocol{
			goplugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, newError(path, "load", "failed to get rpc client", err)
	}

	raw, err := rpcClient.Dispense("plugin")
	if err != nil {
		client.Kill()
		return nil, nil, newError(path, "load", "failed to dispense plugin", err)
	}

	p, ok := raw.(Plugin)
	if !ok {
		client.Kill()
		return nil, nil, newError(path, "load", "dispensed value does not implement Plugin", nil)
	}
	return p, client, nil
}
