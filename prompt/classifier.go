package prompt

import (
	"regexp"
	"strings"
)

type kindPattern struct {
	kind Kind
	re   *regexp.Regexp
}

// Classifier 将提示符片段编译为一个行尾锚定的候选正则，
// 并按固定优先级把匹配文本归类。
type Classifier struct {
	expect   *regexp.Regexp
	patterns []kindPattern
}

// Compile validates set and builds its classifier.
func Compile(set *Set) (*Classifier, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{}
	alts := make([]string, 0, len(classifyOrder))
	for _, kind := range classifyOrder {
		frag := set.Fragment(kind)
		if frag == "" {
			// 未配置的类别不参与匹配
			continue
		}
		alts = append(alts, frag)
		c.patterns = append(c.patterns, kindPattern{kind: kind, re: regexp.MustCompile(frag)})
	}

	expect, err := regexp.Compile(`(?m)(` + strings.Join(alts, "|") + `)\s*$`)
	if err != nil {
		return nil, err
	}
	c.expect = expect
	return c, nil
}

// Regexp returns the combined expect pattern. Submatch 1 is the prompt text.
func (c *Classifier) Regexp() *regexp.Regexp {
	return c.expect
}

// Classify returns the first kind, in priority order, whose pattern matches text.
func (c *Classifier) Classify(text string) Kind {
	for _, p := range c.patterns {
		if p.re.MatchString(text) {
			return p.kind
		}
	}
	return KindUnknown
}
