package connection

import (
	"errors"
	"fmt"
	"strings"
)

type Protocol string

const (
	ProtocolTelnet Protocol = "telnet"
	ProtocolSSH    Protocol = "ssh"
	// ProtocolSerial 通过 cu 命令连接本地串口
	ProtocolSerial Protocol = "cu"
	// ProtocolSSHLib 进程内 SSH（golang.org/x/crypto/ssh），不依赖外部 ssh 命令
	ProtocolSSHLib Protocol = "sshlib"
	// ProtocolScrapli 使用 scrapligo network driver 的 channel
	ProtocolScrapli Protocol = "scrapli"
)

var ErrUnknownProtocol = errors.New("unknown protocol")

// ParseProtocol maps a host file protocol name (case-insensitive) to a Protocol.
// "serial" is accepted as an alias of "cu".
func ParseProtocol(name string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "telnet":
		return ProtocolTelnet, nil
	case "ssh":
		return ProtocolSSH, nil
	case "cu", "serial":
		return ProtocolSerial, nil
	case "sshlib":
		return ProtocolSSHLib, nil
	case "scrapli":
		return ProtocolScrapli, nil
	default:
		return "", fmt.Errorf("%w %s", ErrUnknownProtocol, name)
	}
}

// IsLocalSerial reports whether sessions over p need explicit stream teardown.
func (p Protocol) IsLocalSerial() bool {
	return p.Capability().LocalSerial
}

// Spawned reports whether p runs an external interactive process.
func (p Protocol) Spawned() bool {
	return p.Capability().Spawned
}
