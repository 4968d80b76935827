package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productSelect = `SELECT p.id, p.name, p.price, p.image, p.in_stock, p.category_id, c.name
	FROM products p JOIN categories c ON c.id = p.category_id`

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.InStock, &p.CategoryID, &p.CategoryName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("商品行の読み取りに失敗しました: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("商品一覧の走査に失敗しました: %w", err)
	}
	return products, nil
}

// FindByID は指定IDの商品をカテゴリ名付きで取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	return p, nil
}

// FindByName は商品名で商品を検索する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByName(ctx context.Context, name string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.name = $1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("商品名による検索に失敗しました: %w", err)
	}
	return p, nil
}

// List はフィルタ条件に一致する商品を返す。
func (r *PostgresProductRepo) List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	query, args := buildProductListQuery(filter)
	return r.queryProducts(ctx, query, args...)
}

// buildProductListQuery はフィルタ条件からSELECT文と引数を組み立てる。
func buildProductListQuery(filter model.ProductFilter) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategoryID != nil {
		conds = append(conds, "p.category_id = "+next(*filter.CategoryID))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "p.price >= "+next(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "p.price <= "+next(*filter.MaxPrice))
	}
	if filter.InStockOnly {
		conds = append(conds, "p.in_stock = TRUE")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		ph := next("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR c.name ILIKE %s)", ph, ph))
	}

	var b strings.Builder
	b.WriteString(productSelect)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(productOrderBy(filter.SortBy))
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(next(filter.Limit))
	}
	return b.String(), args
}

// productOrderBy は並び順をORDER BY句に変換する。idを第2キーにして順序を安定させる。
func productOrderBy(sort model.ProductSort) string {
	switch sort {
	case model.ProductSortPriceAsc:
		return "p.price ASC, p.id ASC"
	case model.ProductSortPriceDesc:
		return "p.price DESC, p.id ASC"
	case model.ProductSortNameDesc:
		return "p.name DESC, p.id ASC"
	default:
		return "p.name ASC, p.id ASC"
	}
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListByCategory はカテゴリに属する商品を名前順に返す。
func (r *PostgresProductRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*model.Product, error) {
	return r.queryProducts(ctx, productSelect+` WHERE p.category_id = $1 ORDER BY p.name ASC`, categoryID)
}

// Search は商品名またはカテゴリ名に部分一致する商品を返す。
func (r *PostgresProductRepo) Search(ctx context.Context, query string, limit int) ([]*model.Product, error) {
	return r.List(ctx, model.ProductFilter{Search: query, Limit: limit})
}

// PriceRange は全商品の最小価格と最大価格を返す。商品がない場合は0,0を返す。
func (r *PostgresProductRepo) PriceRange(ctx context.Context) (*model.PriceRange, error) {
	pr := &model.PriceRange{}
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(price), 0), COALESCE(MAX(price), 0) FROM products`,
	).Scan(&pr.Min, &pr.Max)
	if err != nil {
		return nil, fmt.Errorf("価格帯の取得に失敗しました: %w", err)
	}
	return pr, nil
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (name, price, image, in_stock, category_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		product.Name, product.Price, product.Image, product.InStock, product.CategoryID,
	).Scan(&product.ID)
	if err != nil {
		return classifyError(err, "商品の作成に失敗しました")
	}
	return nil
}

// Update は商品情報を更新する。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $2, price = $3, image = $4, in_stock = $5, category_id = $6
		 WHERE id = $1`,
		product.ID, product.Name, product.Price, product.Image, product.InStock, product.CategoryID,
	)
	if err != nil {
		return classifyError(err, "商品の更新に失敗しました")
	}
	return requireAffected(result, "product", product.ID)
}

// DeleteByID は指定IDの商品を削除する。
func (r *PostgresProductRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "商品の削除に失敗しました")
	}
	return requireAffected(result, "product", id)
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
