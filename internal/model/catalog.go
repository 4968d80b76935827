package model

import "github.com/shopspring/decimal"

// Category は商品カテゴリを表す。
type Category struct {
	ID   int64
	Name string
}

// Product は販売商品を表す。
// CategoryNameは一覧取得時にcategoriesとJOINして埋められる。
type Product struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	Image        string
	InStock      bool
	CategoryID   int64
	CategoryName string
}

// ProductSort は商品一覧の並び順を表す。
type ProductSort string

const (
	// ProductSortNameAsc は商品名の昇順（デフォルト）。
	ProductSortNameAsc ProductSort = "name_asc"
	// ProductSortNameDesc は商品名の降順。
	ProductSortNameDesc ProductSort = "name_desc"
	// ProductSortPriceAsc は価格の昇順。
	ProductSortPriceAsc ProductSort = "price_asc"
	// ProductSortPriceDesc は価格の降順。
	ProductSortPriceDesc ProductSort = "price_desc"
)

// ParseProductSort は文字列を並び順に変換する。未知の値はProductSortNameAscになる。
func ParseProductSort(s string) ProductSort {
	switch ProductSort(s) {
	case ProductSortNameDesc, ProductSortPriceAsc, ProductSortPriceDesc:
		return ProductSort(s)
	default:
		return ProductSortNameAsc
	}
}

// ProductFilter は商品一覧の絞り込み条件を表す。
type ProductFilter struct {
	CategoryID  *int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
	Search      string // 商品名またはカテゴリ名の部分一致
	SortBy      ProductSort
	Limit       int
}

// PriceRange は全商品の価格の最小値と最大値を表す。
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}
