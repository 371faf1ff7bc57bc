package prompt

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrMissingPrivilegedPrompt = errors.New("privileged mode prompt (command2) is required")
	ErrMissingEnableCommand    = errors.New("enable_command is required when normal mode prompt (command1) is set")
)

// Set 单一设备类型的提示符定义，对应 prompts/<type>_prompt.yml。
// 除 EnableCommand 是字面字符串外，其余字段都是正则片段。
type Set struct {
	Password       string `yaml:"password" json:"password"`
	EnablePassword string `yaml:"enable_password" json:"enable_password"`
	Username       string `yaml:"username" json:"username"`
	NormalMode     string `yaml:"command1" json:"command1"` // 用户模式，如 "Router>"
	PrivilegedMode string `yaml:"command2" json:"command2"` // 特权模式，如 "Router#"
	Confirmation   string `yaml:"yn" json:"yn"`
	SubPrompt1     string `yaml:"sub1" json:"sub1"`
	SubPrompt2     string `yaml:"sub2" json:"sub2"`
	EnableCommand  string `yaml:"enable_command" json:"enable_command"`
}

// Fragment returns the regexp fragment configured for kind.
func (s *Set) Fragment(kind Kind) string {
	switch kind {
	case KindPassword:
		return s.Password
	case KindEnablePassword:
		return s.EnablePassword
	case KindUsername:
		return s.Username
	case KindPrivilegedMode:
		return s.PrivilegedMode
	case KindNormalMode:
		return s.NormalMode
	case KindConfirmation:
		return s.Confirmation
	case KindSubPrompt1:
		return s.SubPrompt1
	case KindSubPrompt2:
		return s.SubPrompt2
	default:
		return ""
	}
}

// Validate checks the set can drive a session.
func (s *Set) Validate() error {
	if s == nil {
		return errors.New("prompt set is nil")
	}
	if s.PrivilegedMode == "" {
		return ErrMissingPrivilegedPrompt
	}
	if s.NormalMode != "" && s.EnableCommand == "" {
		return ErrMissingEnableCommand
	}
	for _, kind := range classifyOrder {
		frag := s.Fragment(kind)
		if frag == "" {
			continue
		}
		if _, err := regexp.Compile(frag); err != nil {
			return fmt.Errorf("invalid %s prompt %q: %w", kind, frag, err)
		}
	}
	return nil
}
