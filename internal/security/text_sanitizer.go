// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はレビュー本文やユーザー名などの利用者入力からHTMLを除去し、
// 他の利用者の画面に表示される文字列を安全なプレーンテキストに揃える。
// bluemondayのStrictPolicyを使用し、すべてのタグと属性を除去する。
package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText はHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// script/styleタグは中身ごと除去される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため、1インスタンスを共有して使用する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// RuneLen は文字列の文字数（バイト数ではない）を返す。入力長の検証に使用する。
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
