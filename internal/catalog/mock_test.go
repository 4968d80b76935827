package catalog

import (
	"context"
	"strings"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
)

// --- モック ---

type mockCategoryRepo struct {
	categories  map[int64]*model.Category
	nextID      int64
	hasProducts bool
	deleteErr   error
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: map[int64]*model.Category{}}
}

func (m *mockCategoryRepo) add(name string) *model.Category {
	m.nextID++
	c := &model.Category{ID: m.nextID, Name: name}
	m.categories[c.ID] = c
	return c
}

func (m *mockCategoryRepo) List(context.Context) ([]*model.Category, error) {
	out := []*model.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}
func (m *mockCategoryRepo) FindByID(_ context.Context, id int64) (*model.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}
func (m *mockCategoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.categories[id]
	return ok, nil
}
func (m *mockCategoryRepo) Create(_ context.Context, category *model.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	category.ID = m.nextID
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}
func (m *mockCategoryRepo) Update(_ context.Context, category *model.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name && c.ID != category.ID {
			return repository.ErrDuplicate
		}
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}
func (m *mockCategoryRepo) DeleteByID(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.categories, id)
	return nil
}
func (m *mockCategoryRepo) HasProducts(context.Context, int64) (bool, error) {
	return m.hasProducts, nil
}

type mockProductRepo struct {
	products    map[int64]*model.Product
	nextID      int64
	lastFilter  model.ProductFilter
	searchCalls int
	deleteErr   error
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: map[int64]*model.Product{}}
}

func (m *mockProductRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}
func (m *mockProductRepo) FindByName(_ context.Context, name string) (*model.Product, error) {
	for _, p := range m.products {
		if p.Name == name {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}
func (m *mockProductRepo) List(_ context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	m.lastFilter = filter
	out := []*model.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}
func (m *mockProductRepo) ListByCategory(_ context.Context, categoryID int64) ([]*model.Product, error) {
	out := []*model.Product{}
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *mockProductRepo) Search(_ context.Context, query string, _ int) ([]*model.Product, error) {
	m.searchCalls++
	out := []*model.Product{}
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *mockProductRepo) PriceRange(context.Context) (*model.PriceRange, error) {
	pr := &model.PriceRange{}
	first := true
	for _, p := range m.products {
		if first || p.Price.LessThan(pr.Min) {
			pr.Min = p.Price
		}
		if first || p.Price.GreaterThan(pr.Max) {
			pr.Max = p.Price
		}
		first = false
	}
	return pr, nil
}
func (m *mockProductRepo) Create(_ context.Context, product *model.Product) error {
	m.nextID++
	product.ID = m.nextID
	copied := *product
	m.products[product.ID] = &copied
	return nil
}
func (m *mockProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}
func (m *mockProductRepo) DeleteByID(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}
