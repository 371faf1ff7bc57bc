package render

import (
	"regexp"
	"strings"

	"github.com/charlesren/ylog"
)

// ENV['NAME']、ENV["NAME"] 及 ENV.NAME 三种写法
var envRefPattern = regexp.MustCompile(`\bENV(?:\[\s*['"]([^'"\]]+)['"]\s*\]|\.([A-Za-z_][A-Za-z0-9_]*))`)

// Problem 环境变量检查结果
type Problem struct {
	Name    string
	Defined bool // false: 未定义；true: 已定义但为空
}

// Audit returns the names of the environment variables tpl references and
// logs an error for each undefined one and a warning for each blank one.
// Only references inside template segments are considered.
func Audit(tpl string, lookup LookupFunc) []string {
	names, problems := scan(tpl, lookup)
	for _, p := range problems {
		if p.Defined {
			ylog.Warnf("render", "Env var: %s exists, but null string", p.Name)
		} else {
			ylog.Errorf("render", "Variable name: %s is not found in ENV", p.Name)
		}
	}
	return names
}

// check is Audit without logging.
func check(tpl string, lookup LookupFunc) []Problem {
	_, problems := scan(tpl, lookup)
	return problems
}

func scan(tpl string, lookup LookupFunc) ([]string, []Problem) {
	var names []string
	var problems []Problem
	seen := make(map[string]bool)
	for _, seg := range tagPattern.FindAllStringSubmatch(tpl, -1) {
		for _, ref := range envRefPattern.FindAllStringSubmatch(seg[1], -1) {
			name := ref[1]
			if name == "" {
				name = ref[2]
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)

			v, ok := lookup(name)
			switch {
			case !ok:
				problems = append(problems, Problem{Name: name})
			case strings.TrimSpace(v) == "":
				problems = append(problems, Problem{Name: name, Defined: true})
			}
		}
	}
	return names, problems
}
