package aggregator

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/charlesren/ylog"
	"github.com/charlesren/zapix/sender"

	"github.com/charlesren/cli_thrower/session"
)

const (
	KeySessionStatus = "thrower.session.status"
	KeySessionSent   = "thrower.session.sent"
)

type ZabbixSenderConfig struct {
	ProxyIP           string        `yaml:"proxyip" mapstructure:"proxyip"`
	ProxyPort         string        `yaml:"proxyport" mapstructure:"proxyport"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" mapstructure:"connection_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	PoolSize          int           `yaml:"pool_size" mapstructure:"pool_size"`
}

// SetDefaults 填充默认超时
func (c *ZabbixSenderConfig) SetDefaults() {
	if c.ProxyPort == "" {
		c.ProxyPort = "10051"
	}
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
}

// ZabbixHandler 把每台主机的会话结果以 trapper 监控项推送到 Zabbix
type ZabbixHandler struct {
	sender     *sender.Sender
	config     ZabbixSenderConfig
	serverAddr string
}

func NewZabbixHandler(config ZabbixSenderConfig) (*ZabbixHandler, error) {
	if config.ProxyIP == "" {
		return nil, errors.New("zabbix sender proxyip is empty")
	}
	config.SetDefaults()
	serverAddr := net.JoinHostPort(config.ProxyIP, config.ProxyPort)

	ylog.Infof("zabbix_sender", "creating zabbix sender handler for %s with pool size %d", serverAddr, config.PoolSize)
	ylog.Debugf("zabbix_sender", "connection timeout: %v, read timeout: %v, write timeout: %v",
		config.ConnectionTimeout, config.ReadTimeout, config.WriteTimeout)

	return &ZabbixHandler{
		sender: sender.NewSender(
			serverAddr,
			config.ConnectionTimeout,
			config.ReadTimeout,
			config.WriteTimeout,
			config.PoolSize,
		),
		config:     config,
		serverAddr: serverAddr,
	}, nil
}

func (h *ZabbixHandler) HandleResult(results []session.Result) error {
	if len(results) == 0 {
		ylog.Warnf("zabbix_sender", "no results to send to zabbix")
		return nil
	}

	metrics := buildMetrics(results)
	for i, metric := range metrics {
		ylog.Debugf("zabbix_sender", "metric[%d/%d]: host=%s, key=%s, value=%s, clock=%d",
			i+1, len(metrics), metric.Host, metric.Key, metric.Value, metric.Clock)
	}

	start := time.Now()
	_, resTrapper, err := h.sender.SendMetrics(metrics)
	duration := time.Since(start)
	if err != nil {
		ylog.Errorf("zabbix_sender", "failed to send %d metrics to zabbix after %v: %v [trapper_response='%s', trapper_info='%s']",
			len(metrics), duration, err, resTrapper.Response, resTrapper.Info)
		return fmt.Errorf("zabbix send failed: %w (results=%d, server=%s)", err, len(results), h.serverAddr)
	}
	if resTrapper.Response != "success" {
		ylog.Warnf("zabbix_sender", "zabbix server reported failure: %s - %s", resTrapper.Response, resTrapper.Info)
		return fmt.Errorf("zabbix server reported failure: %s - %s", resTrapper.Response, resTrapper.Info)
	}

	ylog.Debugf("zabbix_sender", "successfully sent %d metrics to zabbix in %v (info: %s)", len(metrics), duration, resTrapper.Info)
	return nil
}

// buildMetrics 每台主机两个 trapper 监控项：结束原因与已发送命令数
func buildMetrics(results []session.Result) []*sender.Metric {
	metrics := make([]*sender.Metric, 0, 2*len(results))
	for _, r := range results {
		if r.Hostname == "" {
			ylog.Warnf("zabbix_sender", "result without hostname skipped (reason: %s)", r.Reason)
			continue
		}
		clock := r.StartedAt.Add(r.Duration).Unix()
		metrics = append(metrics,
			&sender.Metric{
				Host:   r.Hostname,
				Key:    KeySessionStatus,
				Value:  string(r.Reason),
				Clock:  clock,
				Active: false,
			},
			&sender.Metric{
				Host:   r.Hostname,
				Key:    KeySessionSent,
				Value:  strconv.Itoa(r.CommandsSent),
				Clock:  clock,
				Active: false,
			},
		)
	}
	return metrics
}
