package llm

// languageName maps a preferred-language code to the name the feedback
// prompt spells out. Unknown codes fall back to English.
func languageName(code string) string {
	names := map[string]string{
		"en": "English",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"hi": "Hindi",
		"zh": "Chinese",
		"ar": "Arabic",
		"pt": "Portuguese",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return "English"
}
