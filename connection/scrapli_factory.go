package connection

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/charlesren/ylog"
	"github.com/scrapli/scrapligo/driver/options"
	"github.com/scrapli/scrapligo/platform"
	"github.com/scrapli/scrapligo/util"
)

// ScrapliFactory 使用 scrapligo 建立连接（含认证与特权获取），
// 之后由会话引擎直接驱动其 channel。
type ScrapliFactory struct{}

func (f *ScrapliFactory) Open(ctx context.Context, target Target) (Stream, error) {
	timeout := target.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	host, port, err := splitHostPort(target.Address)
	if err != nil {
		return nil, err
	}
	opts := []util.Option{
		options.WithAuthNoStrictKey(),
		options.WithAuthUsername(target.Username),
		options.WithAuthPassword(target.Password),
		options.WithTimeoutOps(timeout),
	}
	if target.Enable != "" {
		opts = append(opts, options.WithAuthSecondary(target.Enable))
	}
	if port > 0 {
		opts = append(opts, options.WithPort(port))
	}

	ylog.Debugf("scrapli", "platformOS: %s, ip: %s, username: %s", target.Platform, host, target.Username)
	p, err := platform.NewPlatform(target.Platform, host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create platform failed: %w", err)
	}

	driver, err := p.GetNetworkDriver()
	if err != nil {
		return nil, fmt.Errorf("get network driver failed: %w", err)
	}
	if err := driver.Open(); err != nil {
		return nil, fmt.Errorf("open connection failed: %w", err)
	}

	s := newScrapliStream(driver)
	// Open 已消费掉登录后的提示符，发送回车让设备重新输出
	if err := driver.Channel.WriteReturn(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("write return failed: %w", err)
	}
	return s, nil
}

// splitHostPort 地址不带端口时 port 为 0，使用平台默认端口
func splitHostPort(addr string) (string, int, error) {
	h, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %s: %w", addr, err)
	}
	return h, p, nil
}
