package prompt

// Kind 设备输出行被识别出的提示符类别
type Kind int

const (
	KindUnknown Kind = iota
	KindPassword
	KindEnablePassword
	KindUsername
	KindPrivilegedMode
	KindNormalMode
	KindConfirmation
	KindSubPrompt1
	KindSubPrompt2
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "password"
	case KindEnablePassword:
		return "enable_password"
	case KindUsername:
		return "username"
	case KindPrivilegedMode:
		return "privileged_mode"
	case KindNormalMode:
		return "normal_mode"
	case KindConfirmation:
		return "confirmation"
	case KindSubPrompt1:
		return "sub_prompt_1"
	case KindSubPrompt2:
		return "sub_prompt_2"
	default:
		return "unknown"
	}
}

// classifyOrder 分类优先级，confirmation 在 sub prompt 之前
var classifyOrder = []Kind{
	KindPassword,
	KindEnablePassword,
	KindUsername,
	KindPrivilegedMode,
	KindNormalMode,
	KindConfirmation,
	KindSubPrompt1,
	KindSubPrompt2,
}
