package connection

// ProtocolCapability 协议能力描述
type ProtocolCapability struct {
	Protocol Protocol
	// Spawned 由外部交互进程（PTY）承载
	Spawned bool
	// SpawnOpts 读取 opts/<protocol>_opts.yml
	SpawnOpts bool
	// LocalSerial 本地串口：先等待 Connected. 再回车，结束时显式关闭流
	LocalSerial bool
	// NeedsPlatform 需要主机记录中的 platform 字段
	NeedsPlatform bool
}

var capabilities = map[Protocol]ProtocolCapability{
	ProtocolTelnet:  {Protocol: ProtocolTelnet, Spawned: true},
	ProtocolSSH:     {Protocol: ProtocolSSH, Spawned: true, SpawnOpts: true},
	ProtocolSerial:  {Protocol: ProtocolSerial, Spawned: true, SpawnOpts: true, LocalSerial: true},
	ProtocolSSHLib:  {Protocol: ProtocolSSHLib},
	ProtocolScrapli: {Protocol: ProtocolScrapli, NeedsPlatform: true},
}

// Capability returns what p needs from the host record and the session.
func (p Protocol) Capability() ProtocolCapability {
	if c, ok := capabilities[p]; ok {
		return c
	}
	return ProtocolCapability{Protocol: p}
}
