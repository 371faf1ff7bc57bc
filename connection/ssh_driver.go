package connection

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/ssh"
)

// sshStream 基于 x/crypto/ssh 交互式 shell 的双工流
type sshStream struct {
	client    *ssh.Client
	session   *ssh.Session
	stdin     io.WriteCloser
	stdout    io.Reader
	closeOnce sync.Once
}

func newSSHStream(client *ssh.Client, session *ssh.Session) (*sshStream, error) {
	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", 24, 200, modes); err != nil {
		return nil, fmt.Errorf("request pty: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := session.Shell(); err != nil {
		return nil, fmt.Errorf("start shell: %w", err)
	}
	return &sshStream{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}

func (s *sshStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *sshStream) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *sshStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.stdin.Close()
		_ = s.session.Close()
		err = s.client.Close()
	})
	return err
}
