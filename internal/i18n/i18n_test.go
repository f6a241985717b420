package i18n

import "testing"

func TestTranslationsComplete(t *testing.T) {
	for key := range translations[VI] {
		if _, ok := translations[EN][key]; !ok {
			t.Fatalf("key %q missing in EN", key)
		}
	}
	for key := range translations[EN] {
		if _, ok := translations[VI][key]; !ok {
			t.Fatalf("key %q missing in VI", key)
		}
	}
}

func TestSetLanguage(t *testing.T) {
	defer SetLanguage(GetLanguage())

	SetLanguage(EN)
	if got := T("status_recording"); got != "Recording... Speak now." {
		t.Fatalf("unexpected EN text %q", got)
	}
	if got := Tf("status_processing", "Japanese"); got != "Processing question in Japanese..." {
		t.Fatalf("unexpected formatted text %q", got)
	}

	SetLanguage("xx")
	if GetLanguage() != EN {
		t.Fatalf("unknown language must be ignored, got %s", GetLanguage())
	}

	if got := T("no_such_key"); got != "no_such_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestAvailableLanguagesTranslated(t *testing.T) {
	for _, lang := range AvailableLanguages() {
		if !Supported(lang) {
			t.Fatalf("language %s has no translations", lang)
		}
		if LanguageName(lang) == string(lang) {
			t.Fatalf("language %s has no display name", lang)
		}
	}
	if Supported("xx") {
		t.Fatal("unexpected support for xx")
	}
}
