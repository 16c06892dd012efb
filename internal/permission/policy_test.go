package permission

import (
	"testing"

	"flowboard/internal/config"
)

func TestPolicyDecide(t *testing.T) {
	p := New(config.PermissionConfig{
		Default: "allow",
		Tools: map[string]string{
			"delete_task": "deny",
			"update_task": "bogus",
		},
	})

	cases := []struct {
		tool string
		want Decision
	}{
		{tool: "create_task", want: DecisionAllow},
		{tool: "delete_task", want: DecisionDeny},
		{tool: " DELETE_TASK ", want: DecisionDeny},
		{tool: "update_task", want: DecisionAllow},
		{tool: "", want: DecisionDeny},
	}
	for _, tc := range cases {
		if got := p.Decide(tc.tool).Decision; got != tc.want {
			t.Fatalf("Decide(%q) = %s, want %s", tc.tool, got, tc.want)
		}
	}
}

func TestPolicyDefaultDeny(t *testing.T) {
	p := New(config.PermissionConfig{
		Default: "deny",
		Tools:   map[string]string{"create_task": "allow"},
	})
	if !p.Allowed("create_task") {
		t.Fatal("create_task should be allowed by its rule")
	}
	if p.Allowed("update_task") {
		t.Fatal("update_task should fall back to deny")
	}
}

func TestAllowPermitsEverything(t *testing.T) {
	p := Allow()
	for _, name := range []string{"create_task", "update_task", "delete_task"} {
		if !p.Allowed(name) {
			t.Fatalf("%s should be allowed", name)
		}
	}
}

func TestPresetConfig(t *testing.T) {
	cfg, ok := PresetConfig("no-delete")
	if !ok {
		t.Fatal("no-delete preset should exist")
	}
	p := New(cfg)
	if p.Allowed("delete_task") || !p.Allowed("create_task") {
		t.Fatalf("no-delete preset summary = %s", p.Summary())
	}

	cfg, ok = PresetConfig("readonly")
	if !ok {
		t.Fatal("readonly preset should exist")
	}
	if New(cfg).Allowed("create_task") {
		t.Fatal("readonly preset should deny create_task")
	}

	if _, ok := PresetConfig("yolo"); ok {
		t.Fatal("yolo preset should not exist")
	}
}

func TestSummary(t *testing.T) {
	p := New(config.PermissionConfig{
		Default: "allow",
		Tools:   map[string]string{"update_task": "deny", "delete_task": "deny"},
	})
	want := "default=allow delete_task=deny update_task=deny"
	if got := p.Summary(); got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}
