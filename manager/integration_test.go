package manager

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/charlesren/cli_thrower/connection"
	"github.com/charlesren/cli_thrower/internal/config"
	"github.com/charlesren/cli_thrower/session"
)

// ThrowerIntegrationSuite 从参数文件目录加载主机与命令，走完整的预览与执行流程
type ThrowerIntegrationSuite struct {
	suite.Suite
	loader   *config.Loader
	hosts    []config.Host
	commands []string
	ctx      context.Context
	cancel   context.CancelFunc
}

func (s *ThrowerIntegrationSuite) SetupTest() {
	t := s.T()
	s.loader = newTestLoader(t)
	writeFile(t, filepath.Join(s.loader.HostsDir(), "lab.yml"), `
- hostname: sw1
  ipaddr: 192.0.2.11
  type: c3750g
  protocol: telnet
  username: admin
  password: pw
  enable: en
  tftp_server: 192.0.2.200
- hostname: console1
  ipaddr: 192.0.2.12
  type: ssg
  protocol: cu
  cu_opts: -l /dev/ttyUSB0 -s 9600
  username: admin
  password: pw
`)
	writeFile(t, filepath.Join(s.loader.CommandsDir(), "backup.yml"), `
- terminal length 0
- copy run tftp://<%= host.tftp_server %>/<%= host.hostname %>.confg
`)

	var err error
	s.hosts, err = s.loader.LoadHosts("lab.yml")
	s.Require().NoError(err)
	s.commands, err = s.loader.LoadCommands("backup.yml")
	s.Require().NoError(err)
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 30*time.Second)
}

func (s *ThrowerIntegrationSuite) TearDownTest() {
	s.cancel()
}

func (s *ThrowerIntegrationSuite) TestPreview() {
	m := NewManager(s.loader, &MockOpener{})
	preview := m.Preview(s.hosts, s.commands)

	s.Require().Len(preview, 2)
	s.Equal("telnet 192.0.2.11", preview[0].SpawnCmd)
	s.Equal("copy run tftp://192.0.2.200/sw1.confg", preview[0].Commands[1])
	s.Equal("cu -l /dev/ttyUSB0 -s 9600 --parity=none", preview[1].SpawnCmd)
	s.Len(preview[1].Commands, 2)
	s.Equal("_NOT_DEFINED_", preview[1].Host["enable"])
	s.Equal("en", preview[0].Host["enable"])
}

func (s *ThrowerIntegrationSuite) TestRun() {
	streams := map[string]*routerStream{}
	opener := &MockOpener{OpenFunc: func(ctx context.Context, target connection.Target) (connection.Stream, error) {
		st := newRouterStream()
		streams[target.CommandLine()] = st
		return st, nil
	}}
	opts := session.DefaultOptions()
	opts.Timeout = 2 * time.Second
	m := NewManager(s.loader, opener, WithOptions(opts))

	results := m.Run(s.ctx, s.hosts[:1], s.commands)

	s.Require().Len(results, 1)
	s.Equal(session.ReasonCompleted, results[0].Reason)
	s.Equal(2, results[0].CommandsSent)
	st := streams["telnet 192.0.2.11"]
	s.Require().NotNil(st)
	s.Equal([]string{
		"terminal length 0",
		"copy run tftp://192.0.2.200/sw1.confg",
		"exit",
	}, st.Writes())
}

func TestThrowerIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ThrowerIntegrationSuite))
}
