package permission

import (
	"fmt"
	"sort"
	"strings"

	"flowboard/internal/config"
)

type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

type Result struct {
	Decision Decision
	Reason   string
}

// Policy 决定模型能否调用某个看板工具
// Policy decides whether the model may call a board tool. A denied tool is
// hidden from the model and any call that still names it is refused.
type Policy struct {
	cfg config.PermissionConfig
}

func New(cfg config.PermissionConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Allow 返回放行一切的策略 / Allow returns a policy permitting every tool.
func Allow() *Policy {
	return New(config.PermissionConfig{Default: string(DecisionAllow)})
}

func (p *Policy) Decide(toolName string) Result {
	tool := strings.ToLower(strings.TrimSpace(toolName))
	if tool == "" {
		return Result{Decision: DecisionDeny, Reason: "tool missing"}
	}
	if rule, ok := p.cfg.Tools[tool]; ok {
		d := normalizeDecision(rule, p.defaultDecision())
		return Result{Decision: d, Reason: "permission.tools." + tool}
	}
	return Result{Decision: p.defaultDecision(), Reason: "permission.default"}
}

func (p *Policy) Allowed(toolName string) bool {
	return p.Decide(toolName).Decision == DecisionAllow
}

func (p *Policy) defaultDecision() Decision {
	return normalizeDecision(p.cfg.Default, DecisionAllow)
}

func normalizeDecision(raw string, fallback Decision) Decision {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionAllow:
		return DecisionAllow
	case DecisionDeny:
		return DecisionDeny
	default:
		return fallback
	}
}

// Summary 生成一行策略描述，用于启动日志
// Summary renders the policy on one line for the startup log.
func (p *Policy) Summary() string {
	names := make([]string, 0, len(p.cfg.Tools))
	for name := range p.cfg.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{"default=" + string(p.defaultDecision())}
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, normalizeDecision(p.cfg.Tools[name], p.defaultDecision())))
	}
	return strings.Join(parts, " ")
}

// PresetConfig 返回命名预设；name 为 editor | no-delete | readonly
// PresetConfig returns a named preset: editor, no-delete or readonly.
func PresetConfig(name string) (config.PermissionConfig, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "editor":
		return config.PermissionConfig{Default: string(DecisionAllow)}, true
	case "no-delete":
		return config.PermissionConfig{
			Default: string(DecisionAllow),
			Tools:   map[string]string{"delete_task": string(DecisionDeny)},
		}, true
	case "readonly":
		return config.PermissionConfig{Default: string(DecisionDeny)}, true
	default:
		return config.PermissionConfig{}, false
	}
}
