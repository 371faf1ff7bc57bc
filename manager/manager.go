package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charlesren/ylog"
	"gopkg.in/yaml.v3"

	"github.com/charlesren/cli_thrower/aggregator"
	"github.com/charlesren/cli_thrower/connection"
	"github.com/charlesren/cli_thrower/internal/config"
	"github.com/charlesren/cli_thrower/prompt"
	"github.com/charlesren/cli_thrower/render"
	"github.com/charlesren/cli_thrower/session"
)

// ParamSource 提供提示符定义与 spawn 选项，通常是 *config.Loader
type ParamSource interface {
	LoadPrompt(deviceType string) (*prompt.Set, error)
	LoadSpawnOpts(protocol string) ([]string, error)
}

// Opener 按 Target 打开双向流，通常是 *connection.Registry
type Opener interface {
	Open(ctx context.Context, target connection.Target) (connection.Stream, error)
}

type Option func(*Manager)

// WithOptions 设置会话参数
func WithOptions(opts session.Options) Option {
	return func(m *Manager) { m.options = opts }
}

// WithAggregator 会话结果交给聚合器
func WithAggregator(agg *aggregator.Aggregator) Option {
	return func(m *Manager) { m.aggregator = agg }
}

// WithLookup 替换环境变量查找（测试用）
func WithLookup(lookup render.LookupFunc) Option {
	return func(m *Manager) { m.lookup = lookup }
}

// Manager 逐台主机执行命令列表，或只做参数预览
type Manager struct {
	params     ParamSource
	opener     Opener
	aggregator *aggregator.Aggregator
	options    session.Options
	lookup     render.LookupFunc
}

func NewManager(params ParamSource, opener Opener, opts ...Option) *Manager {
	m := &Manager{
		params:  params,
		opener:  opener,
		options: session.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// hostPlan 单台主机打开会话前解析好的全部参数
type hostPlan struct {
	host       config.Host
	renderer   *render.Renderer
	prompt     *prompt.Set
	classifier *prompt.Classifier
	target     connection.Target
}

func (m *Manager) renderer(host config.Host) *render.Renderer {
	if m.lookup != nil {
		return render.NewWithLookup(host, m.lookup)
	}
	return render.New(host)
}

// prepare 加载提示符并生成 spawn 命令；任何一步失败该主机都不会被连接
func (m *Manager) prepare(host config.Host) (*hostPlan, error) {
	set, err := m.params.LoadPrompt(host.Type)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}
	classifier, err := prompt.Compile(set)
	if err != nil {
		return nil, fmt.Errorf("compile prompt: %w", err)
	}

	proto, err := connection.ParseProtocol(host.Protocol)
	if err != nil {
		ylog.Errorf("manager", "Unknown protocol %s", host.Protocol)
		return nil, err
	}
	var spawnOpts []string
	if proto.Capability().SpawnOpts {
		if spawnOpts, err = m.params.LoadSpawnOpts(string(proto)); err != nil {
			return nil, fmt.Errorf("load spawn opts: %w", err)
		}
	}

	r := m.renderer(host)
	target, err := connection.NewTarget(connection.TargetParams{
		Protocol:  host.Protocol,
		Address:   r.Address(),
		Username:  r.Username(),
		Password:  r.Password(false),
		Enable:    r.Enable(),
		CuOpts:    host.CuOpts,
		Platform:  host.Platform,
		SpawnOpts: spawnOpts,
		Timeout:   m.options.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &hostPlan{host: host, renderer: r, prompt: set, classifier: classifier, target: target}, nil
}

// Run 按顺序对每台主机执行 commands，单台失败不影响后续主机
func (m *Manager) Run(ctx context.Context, hosts []config.Host, commands []string) []session.Result {
	results := make([]session.Result, 0, len(hosts))
	for _, host := range hosts {
		if err := ctx.Err(); err != nil {
			ylog.Warnf("manager", "run canceled before %s: %v", host.Hostname, err)
			break
		}
		res := m.runHost(ctx, host, commands)
		results = append(results, res)
		if m.aggregator != nil {
			m.aggregator.Submit(res)
		}
	}
	if m.aggregator != nil {
		m.aggregator.Flush()
	}
	return results
}

func (m *Manager) runHost(ctx context.Context, host config.Host, commands []string) session.Result {
	started := time.Now()
	skipped := func(err error) session.Result {
		ylog.Errorf("manager", "Invalid parameter in param file(s) for %s: %v", host.Hostname, err)
		return session.Result{
			Hostname:  host.Hostname,
			Reason:    session.ReasonSkipped,
			Remaining: len(commands),
			Err:       err,
			StartedAt: started,
			Duration:  time.Since(started),
		}
	}

	plan, err := m.prepare(host)
	if err != nil {
		return skipped(err)
	}
	stream, err := m.opener.Open(ctx, plan.target)
	if err != nil {
		return skipped(err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			ylog.Debugf("manager", "close stream of %s: %v", host.Hostname, err)
		}
	}()

	s, err := session.New(stream, session.Params{
		Host:        host,
		Commands:    commands,
		Prompt:      plan.prompt,
		Classifier:  plan.classifier,
		Renderer:    plan.renderer,
		LocalSerial: plan.target.LocalSerial(),
		Options:     m.options,
	})
	if err != nil {
		return skipped(err)
	}
	return s.Run(ctx)
}

// PreviewEntry 单台主机的预览结果
type PreviewEntry struct {
	SpawnCmd string                 `yaml:"spawn_cmd" json:"spawn_cmd"`
	Prompt   *prompt.Set            `yaml:"prompt" json:"prompt"`
	Host     map[string]interface{} `yaml:"host" json:"host"`
	Commands []string               `yaml:"commands" json:"commands"`
}

// Preview renders what Run would use for every host without opening any
// stream. Hosts whose parameters cannot be resolved are left out.
func (m *Manager) Preview(hosts []config.Host, commands []string) []PreviewEntry {
	entries := make([]PreviewEntry, 0, len(hosts))
	for _, host := range hosts {
		plan, err := m.prepare(host)
		if err != nil {
			ylog.Errorf("manager", "Invalid parameter in param file(s) for %s: %v", host.Hostname, err)
			continue
		}

		fields := host.Fields()
		fields["username"] = plan.target.Username
		fields["password"] = plan.target.Password
		fields["ipaddr"] = plan.target.Address
		fields["enable"] = plan.target.Enable

		rendered := make([]string, 0, len(commands))
		for _, cmd := range commands {
			rendered = append(rendered, plan.renderer.Command(cmd))
		}
		entries = append(entries, PreviewEntry{
			SpawnCmd: plan.target.CommandLine(),
			Prompt:   plan.prompt,
			Host:     fields,
			Commands: rendered,
		})
	}
	return entries
}

// PreviewYAML marshals Preview output. Map keys are sorted by yaml.v3 so
// identical inputs give identical bytes.
func (m *Manager) PreviewYAML(hosts []config.Host, commands []string) ([]byte, error) {
	entries := m.Preview(hosts, commands)
	if len(entries) == 0 && len(hosts) > 0 {
		return nil, errors.New("no host could be previewed")
	}
	return yaml.Marshal(entries)
}
