package i18n

import "testing"

func TestNew_English(t *testing.T) {
	i := New("en")
	if i.Locale() != "en" {
		t.Fatalf("Locale()=%q, want en", i.Locale())
	}
	got := i.T("chat.rate_limited")
	if got != "I'm being rate limited. Please try again in a moment." {
		t.Fatalf("T(chat.rate_limited)=%q", got)
	}
}

func TestNew_Chinese(t *testing.T) {
	i := New("zh-CN")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	got := i.T("column.done")
	if got != "已完成" {
		t.Fatalf("T(column.done)=%q, want 已完成", got)
	}
}

func TestNew_ChineseFromLang(t *testing.T) {
	i := New("zh_CN.UTF-8")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	got := i.T("panel.board")
	if got != "看板" {
		t.Fatalf("T(panel.board)=%q, want 看板", got)
	}
}

func TestT_WithArgs(t *testing.T) {
	i := New("en")
	got := i.T("status.tasks_changed", 2)
	if got != "Board updated (2 action(s))" {
		t.Fatalf("T with args=%q", got)
	}
}

func TestT_MissingKey(t *testing.T) {
	i := New("en")
	got := i.T("nonexistent.key")
	if got != "nonexistent.key" {
		t.Fatalf("T missing key=%q, want key itself", got)
	}
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en_US.UTF-8", "en"},
		{"zh_CN.UTF-8", "zh-CN"},
		{"zh_TW", "zh-CN"},
		{"zh-Hant-HK", "zh-CN"},
		{"en-GB", "en"},
		{"C.UTF-8", "en"},
		{"POSIX", "en"},
		{"de_DE@euro", "en"},
		{"not a locale!", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		if got := MatchLocale(tt.input); got != tt.expected {
			t.Errorf("MatchLocale(%q)=%q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGlobal(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("Global() should not be nil")
	}
	if g2 := Global(); g != g2 {
		t.Fatal("Global() should return same instance")
	}

	Init("zh-CN")
	t.Cleanup(func() { Init("en") })
	if got := T("column.done"); got != "已完成" {
		t.Fatalf("T after Init(zh-CN)=%q", got)
	}
}

func TestChineseFallsBackToEnglishKeys(t *testing.T) {
	i := New("zh-CN")
	for k := range EnMessages {
		if i.T(k) == k {
			t.Errorf("zh-CN table has no entry for %q", k)
		}
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for k := range EnMessages {
		if _, ok := ZhCNMessages[k]; !ok {
			t.Errorf("zh-CN catalog missing %q", k)
		}
	}
	for k := range ZhCNMessages {
		if _, ok := EnMessages[k]; !ok {
			t.Errorf("zh-CN catalog has unknown key %q", k)
		}
	}
}

func TestDetectLocale_PrefersFlowboardLocale(t *testing.T) {
	t.Setenv("FLOWBOARD_LOCALE", "zh_CN.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")
	if got := DetectLocale(); got != "zh-CN" {
		t.Fatalf("DetectLocale()=%q, want zh-CN", got)
	}
}
