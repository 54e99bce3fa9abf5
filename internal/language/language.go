package language

import "strings"

// Default is used wherever no language information exists at all.
const Default = "en-US"

// supported lists the languages advertised to clients on connect.
var supported = []string{
	"zh-CN",
	"en-US",
	"ja-JP",
	"ko-KR",
	"fr-FR",
	"de-DE",
	"es-ES",
	"it-IT",
	"ru-RU",
	"pt-PT",
	"ar-SA",
}

// DefaultRanking is the global ranking reported before any usage was recorded.
var DefaultRanking = []string{"en-US", "zh-CN"}

var aliases = map[string]string{
	"zh": "zh-CN", "zh-cn": "zh-CN", "zh-tw": "zh-TW", "chinese": "zh-CN",
	"en": "en-US", "english": "en-US",
	"ja": "ja-JP", "japanese": "ja-JP",
	"ko": "ko-KR", "korean": "ko-KR",
	"fr": "fr-FR", "french": "fr-FR",
	"de": "de-DE", "german": "de-DE",
	"es": "es-ES", "spanish": "es-ES",
	"it": "it-IT", "italian": "it-IT",
	"pt": "pt-PT", "portuguese": "pt-PT",
	"ru": "ru-RU", "russian": "ru-RU",
	"vi": "vi-VN", "vietnamese": "vi-VN",
	"ar": "ar-SA", "arabic": "ar-SA",
	"tl": "tl-PH", "tagalog": "tl-PH",
}

var names = map[string]string{
	"zh-CN": "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
	"en-US": "English",
	"ja-JP": "Japanese",
	"ko-KR": "Korean",
	"fr-FR": "French",
	"de-DE": "German",
	"es-ES": "Spanish",
	"it-IT": "Italian",
	"pt-PT": "Portuguese",
	"ru-RU": "Russian",
	"ar-SA": "Arabic",
	"vi-VN": "Vietnamese",
	"tl-PH": "Tagalog",
}

// Normalize maps short codes and English language names to a full tag.
// Unknown values are returned trimmed but otherwise unchanged.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if full, ok := aliases[strings.ToLower(tag)]; ok {
		return full
	}
	return tag
}

// Supported returns a copy of the advertised language list.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// Name returns the English display name of a tag, or the normalized tag itself.
func Name(tag string) string {
	tag = Normalize(tag)
	if name, ok := names[tag]; ok {
		return name
	}
	return tag
}
