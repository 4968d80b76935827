package security

import (
	"strings"
	"testing"
)

// TestSanitizeText はHTMLタグが除去されることを検証する。
func TestSanitizeText(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "空文字列", input: "", want: ""},
		{name: "プレーンテキストはそのまま", input: "Great product", want: "Great product"},
		{name: "装飾タグは除去され本文は残る", input: "<b>Great</b> product", want: "Great product"},
		{name: "前後の空白を除去", input: "  fresh apples \n", want: "fresh apples"},
		{name: "日本語", input: "<p>とても美味しい</p>", want: "とても美味しい"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_RemovesScript はscriptタグとイベント属性が除去されることを検証する。
func TestSanitizeText_RemovesScript(t *testing.T) {
	sanitizer := NewTextSanitizer()

	got := sanitizer.SanitizeText(`<script>alert("xss")</script><img src=x onerror=alert(1)>ok`)

	for _, bad := range []string{"<script", "alert", "onerror", "<img"} {
		if strings.Contains(got, bad) {
			t.Errorf("出力に %q が残っています: %q", bad, got)
		}
	}
	if !strings.Contains(got, "ok") {
		t.Errorf("本文が失われています: %q", got)
	}
}

// TestSanitizeText_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	input := "<em>nice</em> & tasty"

	first := sanitizer.SanitizeText(input)
	second := sanitizer.SanitizeText(input)
	if first != second {
		t.Errorf("出力が一致しません: %q != %q", first, second)
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("りんご"); got != 3 {
		t.Errorf("RuneLen = %d, want 3", got)
	}
}
