package config

// Host 设备连接参数（hosts 文件中的一条记录）。
// IPAddr/Username/Password/Enable 可以包含模板，使用前需经过渲染。
type Host struct {
	Hostname string `yaml:"hostname"`
	IPAddr   string `yaml:"ipaddr"`
	Type     string `yaml:"type"`     // 设备类型，对应 prompts/<type>_prompt.yml
	Protocol string `yaml:"protocol"` // telnet/ssh/cu/sshlib/scrapli
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Enable   string `yaml:"enable,omitempty"`
	CuOpts   string `yaml:"cu_opts,omitempty"`
	Platform string `yaml:"platform,omitempty"` // scrapli 平台名，如 cisco_iosxe

	// 其他自定义字段（如 tftp_server），可在命令模板中引用
	Extra map[string]interface{} `yaml:",inline"`
}

// HasEnable reports whether the host defines its own enable secret.
func (h Host) HasEnable() bool {
	return h.Enable != ""
}

// Fields returns the host record as a flat map, keyed like the host file.
func (h Host) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(h.Extra)+9)
	for k, v := range h.Extra {
		fields[k] = v
	}
	fields["hostname"] = h.Hostname
	fields["ipaddr"] = h.IPAddr
	fields["type"] = h.Type
	fields["protocol"] = h.Protocol
	fields["username"] = h.Username
	fields["password"] = h.Password
	if h.Enable != "" {
		fields["enable"] = h.Enable
	}
	if h.CuOpts != "" {
		fields["cu_opts"] = h.CuOpts
	}
	if h.Platform != "" {
		fields["platform"] = h.Platform
	}
	return fields
}
