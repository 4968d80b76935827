// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はサービス境界で返すエラーの種別を表す。
// HTTP層はKindのみを見てステータスコードを決定する。
type ErrorKind string

const (
	// KindInvalidInput は入力値が範囲外・形式不正であることを示す。ストアに触れる前に返す。
	KindInvalidInput ErrorKind = "invalid_input"
	// KindNotFound は参照先エンティティが存在しないことを示す。
	KindNotFound ErrorKind = "not_found"
	// KindConflict は一意性制約に抵触したことを示す。
	KindConflict ErrorKind = "conflict"
	// KindTransactionFailed は注文トランザクション内で失敗しロールバックしたことを示す。
	KindTransactionFailed ErrorKind = "transaction_failed"
	// KindUnauthorized は認証に失敗したことを示す。
	KindUnauthorized ErrorKind = "unauthorized"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, cart, order, catalog, review, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeEmptyOrder        = "EMPTY_ORDER"
	ErrCodeOutOfStock        = "OUT_OF_STOCK"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound  = "CATEGORY_NOT_FOUND"
	ErrCodeCartLineNotFound  = "CART_LINE_NOT_FOUND"
	ErrCodeAddressNotFound   = "ADDRESS_NOT_FOUND"
	ErrCodeReviewNotFound    = "REVIEW_NOT_FOUND"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeDuplicateReview   = "DUPLICATE_REVIEW"
	ErrCodeDuplicateAddress  = "DUPLICATE_ADDRESS"
	ErrCodeDuplicateProduct  = "DUPLICATE_PRODUCT"
	ErrCodeDuplicateCategory = "DUPLICATE_CATEGORY"
	ErrCodeCategoryInUse     = "CATEGORY_IN_USE"
	ErrCodeProductInUse      = "PRODUCT_IN_USE"
	ErrCodeAddressInUse      = "ADDRESS_IN_USE"
	ErrCodeUserHasOrders     = "USER_HAS_ORDERS"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeUserNameTaken     = "USERNAME_TAKEN"
	ErrCodeCartContended     = "CART_CONTENDED"
	ErrCodeOrderFailed       = "ORDER_FAILED"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
)

// IsKind はerrがAPIErrorであり、かつ指定した種別であるかを返す。
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// NewInvalidInputError は入力値エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidQuantityError は数量が範囲外の場合のエラーを生成する。
func NewInvalidQuantityError(quantity, max int) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeInvalidQuantity,
		Message:  fmt.Sprintf("無効な数量です: %d", quantity),
		Category: "validation",
		Action:   fmt.Sprintf("数量は1から%dの範囲で指定してください。", max),
	}
}

// NewEmptyOrderError は注文明細が空の場合のエラーを生成する。
func NewEmptyOrderError() *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeEmptyOrder,
		Message:  "注文明細が空です。",
		Category: "order",
		Action:   "1件以上の商品を指定してください。",
	}
}

// NewOutOfStockError は在庫切れ商品をカートに追加しようとした場合のエラーを生成する。
func NewOutOfStockError(productID int64) *APIError {
	return &APIError{
		Kind:     KindInvalidInput,
		Code:     ErrCodeOutOfStock,
		Message:  fmt.Sprintf("商品は在庫切れです: %d", productID),
		Category: "cart",
		Action:   "入荷をお待ちください。",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID int64) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %d", productID),
		Category: "catalog",
		Action:   "商品IDを確認してください。",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(categoryID int64) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %d", categoryID),
		Category: "catalog",
		Action:   "カテゴリIDを確認してください。",
	}
}

// NewCartLineNotFoundError はカート明細未検出エラーを生成する。
func NewCartLineNotFoundError(lineID int64) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCartLineNotFound,
		Message:  fmt.Sprintf("指定されたカート明細が見つかりません: %d", lineID),
		Category: "cart",
		Action:   "カートを再読み込みしてください。",
	}
}

// NewAddressNotFoundError は住所未検出エラーを生成する。
func NewAddressNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeAddressNotFound,
		Message:  "住所が登録されていません。",
		Category: "address",
		Action:   "先に住所を登録してください。",
	}
}

// NewReviewNotFoundError はレビュー未検出エラーを生成する。
func NewReviewNotFoundError(reviewID int64) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeReviewNotFound,
		Message:  fmt.Sprintf("指定されたレビューが見つかりません: %d", reviewID),
		Category: "review",
		Action:   "レビューIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewDuplicateReviewError は同一商品へのレビューが既に存在する場合のエラーを生成する。
func NewDuplicateReviewError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateReview,
		Message:  "この商品は既にレビュー済みです。",
		Category: "review",
		Action:   "既存のレビューを編集してください。",
	}
}

// NewDuplicateAddressError はユーザーが既に住所を持っている場合のエラーを生成する。
func NewDuplicateAddressError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateAddress,
		Message:  "住所は既に登録されています。",
		Category: "address",
		Action:   "住所の更新を使用してください。",
	}
}

// NewDuplicateProductError は商品名が重複している場合のエラーを生成する。
func NewDuplicateProductError(name string) *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateProduct,
		Message:  fmt.Sprintf("商品名は既に使用されています: %s", name),
		Category: "catalog",
		Action:   "別の商品名を指定してください。",
	}
}

// NewDuplicateCategoryError はカテゴリ名が重複している場合のエラーを生成する。
func NewDuplicateCategoryError(name string) *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateCategory,
		Message:  fmt.Sprintf("カテゴリ名は既に使用されています: %s", name),
		Category: "catalog",
		Action:   "別のカテゴリ名を指定してください。",
	}
}

// NewCategoryInUseError は商品が紐づくカテゴリを削除しようとした場合のエラーを生成する。
func NewCategoryInUseError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeCategoryInUse,
		Message:  "商品が登録されているカテゴリは削除できません。",
		Category: "catalog",
		Action:   "先に商品を別カテゴリへ移動するか削除してください。",
	}
}

// NewProductInUseError は注文明細から参照されている商品を削除しようとした場合のエラーを生成する。
func NewProductInUseError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeProductInUse,
		Message:  "注文履歴に含まれる商品は削除できません。",
		Category: "catalog",
		Action:   "在庫切れに変更してください。",
	}
}

// NewAddressInUseError は注文から参照されている住所を削除しようとした場合のエラーを生成する。
func NewAddressInUseError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeAddressInUse,
		Message:  "注文履歴で使用されている住所は削除できません。",
		Category: "address",
		Action:   "住所の更新を使用してください。",
	}
}

// NewUserHasOrdersError は注文履歴を持つユーザーを削除しようとした場合のエラーを生成する。
func NewUserHasOrdersError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeUserHasOrders,
		Message:  "注文履歴があるユーザーは削除できません。",
		Category: "auth",
		Action:   "サポートにお問い合わせください。",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewUserNameTakenError はユーザー名が使用済みの場合のエラーを生成する。
func NewUserNameTakenError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeUserNameTaken,
		Message:  "このユーザー名は既に使用されています。",
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewCartContendedError はカート明細の並行更新が再試行後も成立しなかった場合のエラーを生成する。
func NewCartContendedError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeCartContended,
		Message:  "カートが同時に更新されたため、追加できませんでした。",
		Category: "cart",
		Action:   "もう一度お試しください。",
	}
}

// NewOrderFailedError は注文トランザクションが失敗しロールバックされた場合のエラーを生成する。
// 原因の詳細はログにのみ記録し、呼び出し元には一般的なメッセージを返す。
func NewOrderFailedError() *APIError {
	return &APIError{
		Kind:     KindTransactionFailed,
		Code:     ErrCodeOrderFailed,
		Message:  "注文処理に失敗しました。注文は作成されていません。",
		Category: "order",
		Action:   "内容を確認し、再度注文してください。",
	}
}

// NewInvalidCredentialsError はログイン情報が一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:     KindUnauthorized,
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUnauthorizedError は認証が必要な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Kind:     KindUnauthorized,
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
