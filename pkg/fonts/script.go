package fonts

import (
	"strings"

	"golang.org/x/text/language"
)

// Script is the writing-system family a font has to cover.
type Script int

const (
	Latin Script = iota
	Arabic
	Hebrew
	CJK
	Korean
)

func (s Script) String() string {
	switch s {
	case Arabic:
		return "arabic"
	case Hebrew:
		return "hebrew"
	case CJK:
		return "cjk"
	case Korean:
		return "korean"
	default:
		return "latin"
	}
}

// RTL reports whether the script is written right to left.
func (s Script) RTL() bool {
	return s == Arabic || s == Hebrew
}

// ScriptFor maps a BCP 47 language tag ("ar", "he-IL", "zh-Hant", "ja") to the
// script family its text is most likely written in. Unknown or malformed
// tags map to Latin.
func ScriptFor(lang string) Script {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Latin
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return Latin
	}
	sc, _ := tag.Script()
	switch sc.String() {
	case "Arab":
		return Arabic
	case "Hebr":
		return Hebrew
	case "Kore", "Hang":
		return Korean
	case "Hans", "Hant", "Hani", "Jpan", "Hira", "Kana":
		return CJK
	default:
		return Latin
	}
}
