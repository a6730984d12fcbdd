package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for issue codes.
// data provides optional parameters to embed in the message (for example,
// "min" or "max"); templates reference them as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalog = map[string]map[string]string{
	"en": {
		"required":      "is required",
		"invalid_type":  "has an invalid type",
		"too_short":     "must be at least {min} characters",
		"too_long":      "must be at most {max} characters",
		"too_small":     "must be at least {min}",
		"too_big":       "must be at most {max}",
		"pattern":       "has an invalid format",
		"invalid_enum":  "must be one of {options}",
		"too_few_items": "needs at least {min} item(s)",
		"uniqueness":    "duplicates item {first}",
		"business_rule": "is invalid",
	},
	"ja": {
		"required":      "必須項目です",
		"invalid_type":  "型が不正です",
		"too_short":     "{min}文字以上で入力してください",
		"too_long":      "{max}文字以内で入力してください",
		"too_small":     "{min}以上を指定してください",
		"too_big":       "{max}以下を指定してください",
		"pattern":       "形式が不正です",
		"invalid_enum":  "{options} のいずれかを指定してください",
		"too_few_items": "{min}件以上必要です",
		"uniqueness":    "{first}番目の項目と重複しています",
		"business_rule": "不正な値です",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalog[t.lang][code]
	if !ok {
		return code
	}
	return expand(tmpl, data)
}

// expand substitutes {name} placeholders. Unknown placeholders are kept.
func expand(tmpl string, data map[string]string) string {
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
	if _, ok := catalog[lang]; !ok {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
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

// Format is T for structured parameters. Sequences render as a comma
// separated list.
func Format(code string, params map[string]any) string {
	if len(params) == 0 {
		return T(code, nil)
	}
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = render(v)
	}
	return T(code, data)
}

func render(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = render(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	}
	return fmt.Sprint(v)
}
