package errors

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys, one per code. The English text doubles as the key.
var summaries = map[Code]string{
	ERegistry:       "registry request failed",
	EInstall:        "package installation failed",
	EEntryNotFound:  "package has no usable entry point",
	EUnknownCommand: "unknown command",
	EDispatch:       "command process failed",
	EConfig:         "invalid CLI configuration",
	EInvalidPackage: "invalid package",
}

var supported = []language.Tag{language.English, language.SimplifiedChinese}

var matcher = language.NewMatcher(supported)

func init() {
	zh := map[Code]string{
		ERegistry:       "请求包仓库失败",
		EInstall:        "安装依赖包失败",
		EEntryNotFound:  "依赖包入口文件不存在",
		EUnknownCommand: "未知的命令",
		EDispatch:       "命令执行失败",
		EConfig:         "脚手架配置无效",
		EInvalidPackage: "依赖包参数不正确",
	}
	for code, en := range summaries {
		_ = message.SetString(language.English, en, en)
		if s, ok := zh[code]; ok {
			_ = message.SetString(language.SimplifiedChinese, en, s)
		}
	}
}

// Localize renders the short user-facing message for err in the given
// language: a translated summary for the code plus the error's own message.
func Localize(err error, tag language.Tag) string {
	if err == nil {
		return ""
	}
	p := message.NewPrinter(tag)

	ce, ok := AsCLIError(err)
	if !ok {
		return err.Error()
	}
	summary, ok := summaries[ce.Code]
	if !ok {
		return ce.Msg
	}
	return p.Sprintf(summary) + ": " + ce.Msg
}

// UserLanguage picks the catalog language from LC_ALL, LC_MESSAGES or LANG.
// Values like "zh_CN.UTF-8" are accepted.
func UserLanguage(getenv func(string) string) language.Tag {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		v = strings.ReplaceAll(v, "_", "-")
		tag, _, _ := matcher.Match(language.Make(v))
		base, _ := tag.Base()
		if zhBase, _ := language.SimplifiedChinese.Base(); base == zhBase {
			return language.SimplifiedChinese
		}
		return language.English
	}
	return language.English
}
