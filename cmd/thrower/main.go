package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charlesren/userconfig"
	"github.com/charlesren/ylog"
	"github.com/spf13/viper"

	"github.com/charlesren/cli_thrower/aggregator"
	"github.com/charlesren/cli_thrower/connection"
	"github.com/charlesren/cli_thrower/internal/config"
	"github.com/charlesren/cli_thrower/manager"
	"github.com/charlesren/cli_thrower/session"
)

// zap 的 debug 级别
const verboseLogLevel = -1

var (
	UserConfig *viper.Viper
	ConfPath   string

	baseDir     string
	hostFile    string
	commandFile string
	preview     bool
	timeoutSec  int
	verbose     bool
)

func init() {
	flag.StringVar(&ConfPath, "c", "../conf/thrower.yml", "ConfigPath")
	flag.StringVar(&baseDir, "b", "", "Base directory of prompts/hosts/commands/opts")
	flag.StringVar(&hostFile, "H", "", "Host list file (yml or xlsx)")
	flag.StringVar(&commandFile, "C", "", "Command list file")
	flag.BoolVar(&preview, "p", false, "Preview parameters without connecting")
	flag.IntVar(&timeoutSec, "t", 0, "Prompt timeout in seconds")
	flag.BoolVar(&verbose, "v", false, "Verbose (debug) logging")
	flag.Parse()

	initConfig()
}

func initConfig() {
	if _, err := os.Stat(ConfPath); err == nil {
		if UserConfig, err = userconfig.NewUserConfig(userconfig.WithPath(ConfPath)); err != nil {
			fmt.Printf("####LOAD_CONFIG_ERROR: %v", err)
			os.Exit(-1)
		}
	} else {
		UserConfig = viper.New()
	}
	setDefaults(UserConfig)
	applyFlags(UserConfig)
	initLog()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log.applog.loglevel", 0)
	v.SetDefault("server.log.applog.path", "../logs/thrower.log")
	v.SetDefault("thrower.timeout", int(session.DefaultTimeout/time.Second))
	v.SetDefault("thrower.idle_limit", session.DefaultIdleLimit)
	v.SetDefault("thrower.max_auth_retry", session.DefaultMaxAuthRetry)
	v.SetDefault("thrower.exit_command", session.DefaultExitCommand)
	v.SetDefault("thrower.base_dir", ".")
	v.SetDefault("zabbix.sender.enabled", false)
	v.SetDefault("zabbix.sender.proxyport", "10051")
	v.SetDefault("zabbix.sender.pool_size", 5)
}

// applyFlags 命令行参数优先于配置文件
func applyFlags(v *viper.Viper) {
	if baseDir != "" {
		v.Set("thrower.base_dir", baseDir)
	}
	if timeoutSec > 0 {
		v.Set("thrower.timeout", timeoutSec)
	}
	if verbose {
		v.Set("server.log.applog.loglevel", verboseLogLevel)
	}
}

func initLog() {
	logger := ylog.NewYLog(
		ylog.WithLogFile(UserConfig.GetString("server.log.applog.path")),
		ylog.WithMaxAge(3),
		ylog.WithMaxSize(100),
		ylog.WithMaxBackups(3),
		ylog.WithLevel(UserConfig.GetInt("server.log.applog.loglevel")),
	)
	ylog.InitLogger(logger)
}

func sessionOptions() session.Options {
	return session.Options{
		Timeout:      time.Duration(UserConfig.GetInt("thrower.timeout")) * time.Second,
		IdleLimit:    UserConfig.GetInt("thrower.idle_limit"),
		MaxAuthRetry: UserConfig.GetInt("thrower.max_auth_retry"),
		ExitCommand:  UserConfig.GetString("thrower.exit_command"),
	}
}

func newAggregator(registry *connection.Registry) (*aggregator.Aggregator, func()) {
	agg := aggregator.New(UserConfig.GetInt("thrower.result_buffer"))
	agg.AddHandler(&aggregator.LogHandler{})
	done := func() {
		stats := agg.GetStats()
		ylog.Infof("Main", "results: total=%d success=%d failed=%d", stats.TotalResults, stats.SuccessResults, stats.FailedResults)
		registry.LogMetrics()
	}
	if !UserConfig.GetBool("zabbix.sender.enabled") {
		return agg, done
	}

	zabbixHandler, err := aggregator.NewZabbixHandler(aggregator.ZabbixSenderConfig{
		ProxyIP:           UserConfig.GetString("zabbix.sender.proxyip"),
		ProxyPort:         UserConfig.GetString("zabbix.sender.proxyport"),
		ConnectionTimeout: UserConfig.GetDuration("zabbix.sender.connection_timeout"),
		ReadTimeout:       UserConfig.GetDuration("zabbix.sender.read_timeout"),
		WriteTimeout:      UserConfig.GetDuration("zabbix.sender.write_timeout"),
		PoolSize:          UserConfig.GetInt("zabbix.sender.pool_size"),
	})
	if err != nil {
		ylog.Errorf("Main", "创建zabbix sender失败:%v", err)
		return agg, done
	}
	agg.AddHandler(zabbixHandler)
	return agg, done
}

func main() {
	ylog.Infof("Main", "启动，配置文件: %s", ConfPath)
	if hostFile == "" || commandFile == "" {
		fmt.Fprintln(os.Stderr, "usage: thrower -H <host file> -C <command file> [-b base dir] [-p] [-t sec] [-v]")
		os.Exit(2)
	}

	loader, err := config.NewLoader(UserConfig.GetString("thrower.base_dir"))
	if err != nil {
		ylog.Errorf("Main", "%v", err)
		os.Exit(1)
	}
	hosts, err := loader.LoadHosts(hostFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	commands, err := loader.LoadCommands(commandFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ylog.Infof("Main", "loaded %d hosts, %d commands from %s", len(hosts), len(commands), loader.BaseDir())

	if preview {
		out, err := manager.NewManager(loader, connection.NewRegistry()).PreviewYAML(hosts, commands)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		return
	}

	registry := connection.NewRegistry()
	agg, done := newAggregator(registry)
	mgr := manager.NewManager(loader, registry,
		manager.WithOptions(sessionOptions()),
		manager.WithAggregator(agg),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		ylog.Infof("Main", "接收到终止信号，停止执行...")
		cancel()
	}()

	failed := 0
	for _, r := range mgr.Run(ctx, hosts, commands) {
		if !r.Success() {
			failed++
		}
	}
	done()
	if failed > 0 {
		ylog.Warnf("Main", "%d hosts did not complete", failed)
		os.Exit(1)
	}
}
