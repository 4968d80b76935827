// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUserName はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUserName(ctx context.Context, userName string) (*model.User, error)

	// List は全ユーザーを登録順に返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
	// email/user_nameの一意制約違反時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はユーザー名とメールアドレスを更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// LinkGoogle はGoogleアカウント情報を既存ユーザーに紐付ける。
	LinkGoogle(ctx context.Context, id int64, profile *model.GoogleProfile) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 住所・カート・レビューはCASCADE削除される。注文が存在する場合はErrForeignKeyを返す。
	DeleteByID(ctx context.Context, id int64) error
}

// AddressRepository は住所データの永続化インターフェース。
type AddressRepository interface {
	// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Address, error)

	// FindByUserID はユーザーの住所を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID int64) (*model.Address, error)

	// CreateForUser は住所を作成し、users.address_idを同一トランザクションで更新する。
	// 既に住所を持つユーザーの場合はErrDuplicateを返す。
	CreateForUser(ctx context.Context, userID int64, address *model.Address) error

	// Update は住所の各項目を更新する。
	Update(ctx context.Context, address *model.Address) error

	// DeleteByID は指定IDの住所を削除する。注文から参照されている場合はErrForeignKeyを返す。
	DeleteByID(ctx context.Context, id int64) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリを名前順に返す。
	List(ctx context.Context) ([]*model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Category, error)

	// Exists は指定IDのカテゴリが存在するかを返す。
	Exists(ctx context.Context, id int64) (bool, error)

	// Create はカテゴリを作成する。名前の一意制約違反時はErrDuplicateを返す。
	Create(ctx context.Context, category *model.Category) error

	// Update はカテゴリ名を更新する。
	Update(ctx context.Context, category *model.Category) error

	// DeleteByID は指定IDのカテゴリを削除する。
	DeleteByID(ctx context.Context, id int64) error

	// HasProducts はカテゴリに商品が1件以上存在するかを返す。
	HasProducts(ctx context.Context, id int64) (bool, error)
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品をカテゴリ名付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// FindByName は商品名で商品を検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Product, error)

	// List はフィルタ条件に一致する商品を返す。
	List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)

	// ListByCategory はカテゴリに属する商品を名前順に返す。
	ListByCategory(ctx context.Context, categoryID int64) ([]*model.Product, error)

	// Search は商品名またはカテゴリ名に部分一致する商品を返す。
	Search(ctx context.Context, query string, limit int) ([]*model.Product, error)

	// PriceRange は全商品の最小価格と最大価格を返す。商品がない場合は0,0を返す。
	PriceRange(ctx context.Context) (*model.PriceRange, error)

	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品情報を更新する。
	Update(ctx context.Context, product *model.Product) error

	// DeleteByID は指定IDの商品を削除する。注文明細から参照されている場合はErrForeignKeyを返す。
	DeleteByID(ctx context.Context, id int64) error
}

// CartRepository はカート明細の永続化インターフェース。
type CartRepository interface {
	// ListByUserID はユーザーのカート明細を商品・カテゴリ情報付きで追加日時順に返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.CartLine, error)

	// FindByID は指定IDのカート明細を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.CartLine, error)

	// FindByUserAndProduct はユーザーIDと商品IDでカート明細を検索する。見つからない場合はnilを返す。
	FindByUserAndProduct(ctx context.Context, userID, productID int64) (*model.CartLine, error)

	// Insert はカート明細を新規作成する。
	// (user_id, product_id) の一意制約違反時はErrDuplicateを返す。
	Insert(ctx context.Context, line *model.CartLine) error

	// AddQuantity は既存明細の数量に delta を加算し、added_atを現在時刻に更新する。
	// 加算はSQL内で原子的に行う。更新後の明細を返す。見つからない場合はnilを返す。
	AddQuantity(ctx context.Context, id int64, delta int) (*model.CartLine, error)

	// SetQuantity は明細の数量を上書きする。見つからない場合はnilを返す。
	SetQuantity(ctx context.Context, id int64, quantity int) (*model.CartLine, error)

	// DeleteByID は指定IDのカート明細を削除する。削除した場合はtrueを返す。
	DeleteByID(ctx context.Context, id int64) (bool, error)
}

// OrderTx は注文確定用のトランザクション。
// CommitまたはRollbackのいずれかを必ず1回呼び出すこと。
type OrderTx interface {
	// InsertOrder は注文ヘッダを作成し、採番されたIDを返す。
	InsertOrder(ctx context.Context, userID, addressID int64, total decimal.Decimal) (*model.Order, error)

	// InsertOrderItem は注文明細を作成する。
	InsertOrderItem(ctx context.Context, orderID int64, item model.OrderItemInput) error

	// Commit はトランザクションをコミットする。
	Commit() error

	// Rollback はトランザクションをロールバックする。
	Rollback() error
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// Begin は注文確定用のトランザクションを開始する。
	Begin(ctx context.Context) (OrderTx, error)

	// ListByUserID はユーザーの注文を明細付きで新しい順に返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Order, error)
}

// ReviewRepository は商品レビューの永続化インターフェース。
type ReviewRepository interface {
	// List は全レビューを新しい順に返す。
	List(ctx context.Context) ([]*model.Review, error)

	// ListByProduct は商品のレビューを新しい順に返す。
	ListByProduct(ctx context.Context, productID int64) ([]*model.Review, error)

	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Review, error)

	// FindByUserAndProduct はユーザーIDと商品IDでレビューを検索する。見つからない場合はnilを返す。
	FindByUserAndProduct(ctx context.Context, userID, productID int64) (*model.Review, error)

	// Create はレビューを作成する。(user_id, product_id) の一意制約違反時はErrDuplicateを返す。
	Create(ctx context.Context, review *model.Review) error

	// Update はレビューの評価と本文を更新し、updated_atを設定する。
	Update(ctx context.Context, review *model.Review) error

	// DeleteByID は指定IDのレビューを削除する。
	DeleteByID(ctx context.Context, id int64) error
}
