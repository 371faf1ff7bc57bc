// Package render 渲染主机参数与命令模板。
//
// 模板中的 `<%= EXPR %>` 片段由 expr 求值，环境只暴露两个变量：
//
//	host  当前主机记录（hosts 文件中的全部字段）
//	ENV   模板中引用到的环境变量
//
// 例如 `<%= ENV['L2SW_PASS'] %>`、`copy run tftp://<%= host.tftp_server %>/<%= host.hostname %>.confg`。
package render

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charlesren/ylog"
	"github.com/expr-lang/expr"

	"github.com/charlesren/cli_thrower/internal/config"
)

// EnableNotDefined 主机未配置 enable 密码时使用的占位值
const EnableNotDefined = "_NOT_DEFINED_"

var tagPattern = regexp.MustCompile(`<%=\s*(.*?)\s*%>`)

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

type Renderer struct {
	host   config.Host
	lookup LookupFunc
}

func New(host config.Host) *Renderer {
	return NewWithLookup(host, os.LookupEnv)
}

func NewWithLookup(host config.Host, lookup LookupFunc) *Renderer {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Renderer{host: host, lookup: lookup}
}

// Render substitutes every template segment in tpl. Referenced
// environment variables are audited first; problems are only logged.
func (r *Renderer) Render(tpl string) string {
	if !strings.Contains(tpl, "<%") {
		return tpl
	}

	names := Audit(tpl, r.lookup)
	envVars := make(map[string]interface{}, len(names))
	for _, name := range names {
		if v, ok := r.lookup(name); ok {
			envVars[name] = v
		}
	}
	env := map[string]interface{}{
		"host": r.host.Fields(),
		"ENV":  envVars,
	}

	return tagPattern.ReplaceAllStringFunc(tpl, func(segment string) string {
		src := tagPattern.FindStringSubmatch(segment)[1]
		out, err := eval(src, env)
		if err != nil {
			ylog.Errorf("render", "cannot evaluate %q: %v", src, err)
			return segment
		}
		return out
	})
}

func eval(src string, env map[string]interface{}) (string, error) {
	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return "", fmt.Errorf("compile: %w", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", fmt.Errorf("run: %w", err)
	}
	if out == nil {
		return "", nil
	}
	return fmt.Sprint(out), nil
}

func (r *Renderer) Username() string {
	return r.Render(r.host.Username)
}

func (r *Renderer) Address() string {
	return r.Render(r.host.IPAddr)
}

// Password returns the secret for the current mode: the login password in
// normal mode, the enable secret once privilege escalation started.
func (r *Renderer) Password(privileged bool) string {
	if privileged {
		return r.Enable()
	}
	return r.Render(r.host.Password)
}

func (r *Renderer) Enable() string {
	if !r.host.HasEnable() {
		return EnableNotDefined
	}
	return r.Render(r.host.Enable)
}

func (r *Renderer) Command(command string) string {
	return r.Render(command)
}
