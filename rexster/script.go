package rexster

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Gremlin 脚本名
const (
	ScriptCatFlowMap = "getCatFlowMap"
	ScriptFlowMap    = "getFlowMap"
	ScriptCatMap     = "getCatMap"
)

// IsPossibleWikiSlug 判断标识是否可能是 wiki slug。
// 用户生成的 slug 全部小写，会被排除；以数字开头的小写 slug 仍然保留。
func IsPossibleWikiSlug(s string) bool {
	if !isLower(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

// isLower 报告 s 至少含一个有大小写的字符，且这些字符全部是小写。
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r), unicode.IsTitle(r):
			return false
		case unicode.IsLower(r):
			cased = true
		}
	}
	return cased
}

// EscapeNonASCII 对 UTF-8 编码中的非 ASCII 字节做百分号编码，ASCII 原样保留。
// 英文 DBpedia 使用 URI 而不是 IRI。
func EscapeNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < utf8.RuneSelf {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// Slugs 过滤并转义 getCatFlowMap / getFlowMap 的标识，返回可以放进脚本的 slug 列表（不含引号）。
// 只有英文需要转义。
func Slugs(ids []string, lang string) []string {
	return slugs(ids, "", lang == "en")
}

// CatMapSlugs 返回 getCatMap 使用的带前缀 slug。
// 荷兰语资源使用 IRI 原样保留，其余语言都对非 ASCII 转义。
func CatMapSlugs(ids []string, lang string) []string {
	return slugs(ids, CatMapPrefix(lang), lang != "nl")
}

func slugs(ids []string, prefix string, escape bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || !IsPossibleWikiSlug(id) {
			continue
		}
		if escape {
			id = EscapeNonASCII(id)
		}
		out = append(out, prefix+id)
	}
	return out
}

// CatMapPrefix 返回 getCatMap 使用的资源前缀。
func CatMapPrefix(lang string) string {
	if lang == "nl" {
		return "dbp-nl:"
	}
	return "dbp:"
}

// Script 构建 Gremlin 调用，例如 getCatFlowMap(["Paris", "London"], 'en', 0)。
// args 为追加在语言参数之后的整型参数。
func Script(name string, slugs []string, lang string, args ...int) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("([")
	for i, s := range slugs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(s))
	}
	b.WriteString("], '")
	b.WriteString(lang)
	b.WriteByte('\'')
	for _, a := range args {
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(a))
	}
	b.WriteByte(')')
	return b.String()
}

// quote 生成 Groovy 双引号字符串，转义反斜杠、双引号和 $。
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}
