package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "ref" or "type").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates use
// {name} placeholders filled from data; unknown placeholders are left as is.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"schema_not_found":     "cannot find schema entry {ref}",
		"unknown_type":         "unknown type {type}",
		"unknown_complex_type": "unknown complex type {type}",
		"invalid_input":        "invalid input",
		"accessor_invocation":  "unable to call {accessor}",
		"construction":         "failed to create instance of {type}",
		"coercion":             "cannot convert {from} to {type}",
		"depth_exceeded":       "maximum nesting depth {max} exceeded",
		"document_encode":      "failed to encode embedded document",
		"document_decode":      "failed to decode embedded document",
		"invalid_schema":       "invalid schema entry: {detail}",
	},
	"ja": {
		"schema_not_found":     "スキーマ {ref} が見つかりません",
		"unknown_type":         "不明な型です: {type}",
		"unknown_complex_type": "不明な複合型です: {type}",
		"invalid_input":        "入力が不正です",
		"accessor_invocation":  "{accessor} を呼び出せません",
		"construction":         "{type} のインスタンスを生成できません",
		"coercion":             "{from} を {type} に変換できません",
		"depth_exceeded":       "ネストの深さが上限 {max} を超えました",
		"document_encode":      "埋め込みドキュメントのエンコードに失敗しました",
		"document_decode":      "埋め込みドキュメントのデコードに失敗しました",
		"invalid_schema":       "スキーマ定義が不正です: {detail}",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return render(tmpl, data)
}

func render(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
