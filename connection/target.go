package connection

import (
	"fmt"
	"strings"
	"time"
)

// TargetParams 构造 Target 所需的已渲染参数
type TargetParams struct {
	Protocol string
	Address  string
	Username string
	Password string
	Enable   string
	CuOpts   string
	Platform string
	// SpawnOpts 来自 opts/<protocol>_opts.yml 的额外参数，每项可含多个空格分隔的参数
	SpawnOpts []string
	Timeout   time.Duration
}

// Target 单台主机的连接目标。
// 外部进程类协议使用 Args；进程内协议使用地址与凭据。
type Target struct {
	Protocol Protocol
	Address  string
	Username string
	Password string
	Enable   string
	Platform string
	Args     []string
	Timeout  time.Duration
}

// NewTarget resolves the spawn command (or in-process endpoint) for params.
func NewTarget(params TargetParams) (Target, error) {
	proto, err := ParseProtocol(params.Protocol)
	if err != nil {
		return Target{}, err
	}

	t := Target{
		Protocol: proto,
		Address:  params.Address,
		Username: params.Username,
		Password: params.Password,
		Enable:   params.Enable,
		Platform: params.Platform,
		Timeout:  params.Timeout,
	}

	switch proto {
	case ProtocolTelnet:
		t.Args = []string{"telnet", params.Address}
	case ProtocolSSH:
		t.Args = append([]string{"ssh"}, splitOpts(params.SpawnOpts)...)
		t.Args = append(t.Args, "-l", params.Username, params.Address)
	case ProtocolSerial:
		t.Args = append([]string{"cu"}, strings.Fields(params.CuOpts)...)
		t.Args = append(t.Args, splitOpts(params.SpawnOpts)...)
	}
	if proto.Capability().NeedsPlatform && params.Platform == "" {
		return Target{}, fmt.Errorf("%s protocol requires a platform", proto)
	}
	return t, nil
}

// LocalSerial reports whether the target is a directly attached serial line.
func (t Target) LocalSerial() bool {
	return t.Protocol.IsLocalSerial()
}

// CommandLine renders the target for logs and preview.
func (t Target) CommandLine() string {
	switch t.Protocol {
	case ProtocolSSHLib:
		return fmt.Sprintf("sshlib %s@%s", t.Username, t.Address)
	case ProtocolScrapli:
		return fmt.Sprintf("scrapli %s %s@%s", t.Platform, t.Username, t.Address)
	default:
		return strings.Join(t.Args, " ")
	}
}

func splitOpts(opts []string) []string {
	var args []string
	for _, opt := range opts {
		args = append(args, strings.Fields(opt)...)
	}
	return args
}
