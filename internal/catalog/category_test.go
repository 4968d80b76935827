package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
)

func TestCategoryService_Create(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo(), newMockProductRepo())

	got, err := svc.Create(context.Background(), "  Fruits  ")
	require.NoError(t, err)
	assert.Equal(t, "Fruits", got.Name)
	assert.NotZero(t, got.ID)
}

func TestCategoryService_Create_Duplicate(t *testing.T) {
	categories := newMockCategoryRepo()
	categories.add("Fruits")
	svc := NewCategoryService(categories, newMockProductRepo())

	_, err := svc.Create(context.Background(), "Fruits")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConflict))
}

func TestCategoryService_Create_InvalidName(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo(), newMockProductRepo())

	tests := []struct {
		name  string
		input string
	}{
		{"空文字", ""},
		{"空白のみ", "   "},
		{"長すぎる", strings.Repeat("あ", MaxCategoryNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, model.IsKind(err, model.KindInvalidInput))
		})
	}
}

func TestCategoryService_Get_NotFound(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepo(), newMockProductRepo())

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestCategoryService_Update(t *testing.T) {
	categories := newMockCategoryRepo()
	c := categories.add("Fruits")
	categories.add("Dairy")
	svc := NewCategoryService(categories, newMockProductRepo())

	got, err := svc.Update(context.Background(), c.ID, "Fresh Fruits")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Fruits", got.Name)

	_, err = svc.Update(context.Background(), c.ID, "Dairy")
	assert.True(t, model.IsKind(err, model.KindConflict))

	_, err = svc.Update(context.Background(), 99, "Other")
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestCategoryService_Delete(t *testing.T) {
	categories := newMockCategoryRepo()
	c := categories.add("Fruits")
	svc := NewCategoryService(categories, newMockProductRepo())

	require.NoError(t, svc.Delete(context.Background(), c.ID))
	_, ok := categories.categories[c.ID]
	assert.False(t, ok)

	err := svc.Delete(context.Background(), c.ID)
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestCategoryService_Delete_InUse(t *testing.T) {
	categories := newMockCategoryRepo()
	c := categories.add("Fruits")
	categories.hasProducts = true
	svc := NewCategoryService(categories, newMockProductRepo())

	err := svc.Delete(context.Background(), c.ID)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConflict))
	_, ok := categories.categories[c.ID]
	assert.True(t, ok, "カテゴリは削除されていないこと")
}

func TestCategoryService_Delete_ForeignKeyRace(t *testing.T) {
	categories := newMockCategoryRepo()
	c := categories.add("Fruits")
	categories.deleteErr = repository.ErrForeignKey
	svc := NewCategoryService(categories, newMockProductRepo())

	err := svc.Delete(context.Background(), c.ID)
	assert.True(t, model.IsKind(err, model.KindConflict))
}

func TestCategoryService_ProductsInCategory(t *testing.T) {
	categories := newMockCategoryRepo()
	fruits := categories.add("Fruits")
	dairy := categories.add("Dairy")
	products := newMockProductRepo()
	products.products[1] = &model.Product{ID: 1, Name: "Apple", CategoryID: fruits.ID}
	products.products[2] = &model.Product{ID: 2, Name: "Milk", CategoryID: dairy.ID}
	svc := NewCategoryService(categories, products)

	got, err := svc.ProductsInCategory(context.Background(), fruits.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple", got[0].Name)

	_, err = svc.ProductsInCategory(context.Background(), 99)
	assert.True(t, model.IsKind(err, model.KindNotFound))
}
