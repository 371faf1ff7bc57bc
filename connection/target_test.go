package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocol(t *testing.T) {
	cases := map[string]Protocol{
		"telnet":  ProtocolTelnet,
		"TELNET":  ProtocolTelnet,
		"ssh":     ProtocolSSH,
		"Ssh":     ProtocolSSH,
		"cu":      ProtocolSerial,
		"serial":  ProtocolSerial,
		"sshlib":  ProtocolSSHLib,
		"scrapli": ProtocolScrapli,
	}
	for name, want := range cases {
		got, err := ParseProtocol(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := ParseProtocol("rlogin")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestProtocol_Flags(t *testing.T) {
	assert.True(t, ProtocolSerial.IsLocalSerial())
	assert.False(t, ProtocolSSH.IsLocalSerial())
	assert.False(t, ProtocolTelnet.IsLocalSerial())

	assert.True(t, ProtocolTelnet.Spawned())
	assert.True(t, ProtocolSerial.Spawned())
	assert.False(t, ProtocolSSHLib.Spawned())
	assert.False(t, ProtocolScrapli.Spawned())
}

func TestNewTarget(t *testing.T) {
	t.Run("should build ssh command with options", func(t *testing.T) {
		target, err := NewTarget(TargetParams{
			Protocol: "ssh",
			Address:  "1.2.3.4",
			Username: "yasuhito",
			SpawnOpts: []string{
				"-o StrictHostKeyChecking=no",
				"-o KexAlgorithms=+diffie-hellman-group1-sha1",
			},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"ssh -o StrictHostKeyChecking=no -o KexAlgorithms=+diffie-hellman-group1-sha1 -l yasuhito 1.2.3.4",
			target.CommandLine())
		assert.False(t, target.LocalSerial())
	})

	t.Run("should build ssh command without options", func(t *testing.T) {
		target, err := NewTarget(TargetParams{Protocol: "ssh", Address: "1.2.3.4", Username: "bob"})
		require.NoError(t, err)
		assert.Equal(t, []string{"ssh", "-l", "bob", "1.2.3.4"}, target.Args)
	})

	t.Run("should build telnet command", func(t *testing.T) {
		target, err := NewTarget(TargetParams{Protocol: "telnet", Address: "172.16.0.1", SpawnOpts: []string{"-x"}})
		require.NoError(t, err)
		assert.Equal(t, "telnet 172.16.0.1", target.CommandLine())
	})

	t.Run("should build cu command for local serial", func(t *testing.T) {
		target, err := NewTarget(TargetParams{
			Protocol:  "cu",
			CuOpts:    "-l /dev/ttyUSB0 -s 115200",
			SpawnOpts: []string{"--parity=none"},
		})
		require.NoError(t, err)
		assert.Equal(t, "cu -l /dev/ttyUSB0 -s 115200 --parity=none", target.CommandLine())
		assert.True(t, target.LocalSerial())
	})

	t.Run("should describe in-process targets", func(t *testing.T) {
		target, err := NewTarget(TargetParams{Protocol: "sshlib", Address: "10.0.0.1", Username: "admin"})
		require.NoError(t, err)
		assert.Equal(t, "sshlib admin@10.0.0.1", target.CommandLine())
		assert.Empty(t, target.Args)

		target, err = NewTarget(TargetParams{Protocol: "scrapli", Address: "10.0.0.1", Username: "admin", Platform: "cisco_iosxe"})
		require.NoError(t, err)
		assert.Equal(t, "scrapli cisco_iosxe admin@10.0.0.1", target.CommandLine())
	})

	t.Run("should require platform for scrapli", func(t *testing.T) {
		_, err := NewTarget(TargetParams{Protocol: "scrapli", Address: "10.0.0.1"})
		assert.Error(t, err)
	})

	t.Run("should reject unknown protocol", func(t *testing.T) {
		_, err := NewTarget(TargetParams{Protocol: "rsh"})
		assert.ErrorIs(t, err, ErrUnknownProtocol)
	})
}
