package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

const fallbackLocale = "en"

// catalogs 以 locale 名索引；英文兜底缺失的键
// catalogs is indexed by locale name. English fills any key a catalog lacks.
var catalogs = map[string]map[string]string{
	"en":    EnMessages,
	"zh-CN": ZhCNMessages,
}

var (
	supported   = []language.Tag{language.English, language.SimplifiedChinese}
	localeNames = []string{"en", "zh-CN"}
	matcher     = language.NewMatcher(supported)
)

// I18n is an immutable message table for one locale.
type I18n struct {
	locale   string
	messages map[string]string
}

var global atomic.Pointer[I18n]

// Global 返回进程级实例，首次调用时按环境检测 locale
// Global returns the process-wide instance, detecting the locale on first use.
func Global() *I18n {
	if i := global.Load(); i != nil {
		return i
	}
	global.CompareAndSwap(nil, New(""))
	return global.Load()
}

// Init replaces the process-wide instance. An empty locale means detect.
func Init(locale string) {
	global.Store(New(locale))
}

func T(key string, args ...any) string {
	return Global().T(key, args...)
}

// New 创建 locale 对应的消息表 / New builds the table for locale.
func New(locale string) *I18n {
	if strings.TrimSpace(locale) == "" {
		locale = DetectLocale()
	}
	name := MatchLocale(locale)

	messages := make(map[string]string, len(EnMessages))
	for k, v := range catalogs[fallbackLocale] {
		messages[k] = v
	}
	if name != fallbackLocale {
		for k, v := range catalogs[name] {
			messages[k] = v
		}
	}
	return &I18n{locale: name, messages: messages}
}

// T formats the message for key. An unknown key is returned as is.
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

func (i *I18n) Locale() string {
	return i.locale
}

// DetectLocale 依次读取 FLOWBOARD_LOCALE、LANG、LC_ALL、LC_MESSAGES
// DetectLocale reads FLOWBOARD_LOCALE, LANG, LC_ALL and LC_MESSAGES in that
// order and matches the first non-empty value.
func DetectLocale() string {
	for _, env := range []string{"FLOWBOARD_LOCALE", "LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return MatchLocale(v)
		}
	}
	return fallbackLocale
}

// MatchLocale maps a BCP 47 tag or a POSIX locale such as zh_CN.UTF-8 to the
// closest catalog. Every Chinese variant uses the zh-CN catalog.
func MatchLocale(raw string) string {
	tag, err := language.Parse(posixToBCP47(raw))
	if err != nil {
		return fallbackLocale
	}
	if base, _ := tag.Base(); base.String() == "zh" {
		return "zh-CN"
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return fallbackLocale
	}
	return localeNames[idx]
}

// posixToBCP47 drops the codeset and modifier of a POSIX locale name.
func posixToBCP47(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	switch s {
	case "", "C", "POSIX":
		return fallbackLocale
	}
	return strings.ReplaceAll(s, "_", "-")
}
