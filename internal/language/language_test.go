package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"zh", "zh-CN"},
		{"ZH-TW", "zh-TW"},
		{"en", "en-US"},
		{"English", "en-US"},
		{"  japanese ", "ja-JP"},
		{"tl", "tl-PH"},
		{"en-GB", "en-GB"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSupportedReturnsCopy(t *testing.T) {
	list := Supported()
	if len(list) != 11 {
		t.Fatalf("Expected 11 supported languages, got %d", len(list))
	}
	list[0] = "xx-XX"
	if Supported()[0] != "zh-CN" {
		t.Error("Supported should not expose the internal slice")
	}
}

func TestName(t *testing.T) {
	if got := Name("es"); got != "Spanish" {
		t.Errorf("Expected Spanish, got %s", got)
	}
	if got := Name("sw-KE"); got != "sw-KE" {
		t.Errorf("Expected unknown tag to pass through, got %s", got)
	}
}
