package connection

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/charlesren/ylog"
	"golang.org/x/crypto/ssh"
)

const defaultSSHPort = "22"

// SSHFactory 进程内 SSH：认证在握手阶段完成，会话从设备的模式提示符开始
type SSHFactory struct{}

func (f *SSHFactory) Open(ctx context.Context, target Target) (Stream, error) {
	timeout := target.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	addr := sshAddr(target.Address)

	password := target.Password
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User: target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// 部分网络设备只支持 keyboard-interactive
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH连接失败: %w", err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	stream, err := newSSHStream(client, session)
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}
	ylog.Debugf("connection", "sshlib session opened: %s@%s", target.Username, addr)
	return stream, nil
}

// sshAddr 未指定端口时补上 22
func sshAddr(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return net.JoinHostPort(addr, defaultSSHPort)
	}
	return addr
}
