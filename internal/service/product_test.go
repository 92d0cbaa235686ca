package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/catalog"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

func newTestProductService(repo *mockProductRepository, store *mockStorage) *ProductService {
	return NewProductService(repo, store, newTestEventProducer(), newTestLogger(), 4)
}

func TestCreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(ctx, &CreateProductInput{
		Name:     "  SanDisk Ultra 128GB  ",
		Price:    4599,
		Category: "Electronics",
		Stock:    50,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "SanDisk Ultra 128GB", product.Name)
	assert.Equal(t, 0, product.Version)
	assert.NotNil(t, product.Images)
	repo.AssertExpectations(t)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := newTestProductService(new(mockProductRepository), new(mockStorage))
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"empty name", CreateProductInput{Name: "  ", Price: 100, Category: "Electronics"}},
		{"negative price", CreateProductInput{Name: "Thing", Price: -1, Category: "Electronics"}},
		{"negative stock", CreateProductInput{Name: "Thing", Price: 100, Category: "Electronics", Stock: -1}},
		{"unknown category", CreateProductInput{Name: "Thing", Price: 100, Category: "Potions"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, &tc.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestListProducts_ComputesTotalPages(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	repo.On("List", ctx, mock.AnythingOfType("catalog.Query")).Return([]domain.Product{}, nil)
	repo.On("Count", ctx, mock.AnythingOfType("catalog.Query")).Return(9, nil)

	result, err := svc.ListProducts(ctx, url.Values{})

	require.NoError(t, err)
	assert.Equal(t, 9, result.TotalCount)
	assert.Equal(t, 4, result.PerPage)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 1, result.Page)
}

func TestListProducts_BadFilterRejected(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	values, err := url.ParseQuery("price[between]=1,2")
	require.NoError(t, err)

	_, err = svc.ListProducts(ctx, values)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListProducts_PassesParsedQuery(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	var got catalog.Query
	repo.On("List", ctx, mock.AnythingOfType("catalog.Query")).
		Run(func(args mock.Arguments) {
			got = args.Get(1).(catalog.Query)
		}).Return([]domain.Product{}, nil)
	repo.On("Count", ctx, mock.Anything).Return(0, nil)

	values, err := url.ParseQuery("keyword=disk&page=2")
	require.NoError(t, err)

	_, err = svc.ListProducts(ctx, values)

	require.NoError(t, err)
	assert.Equal(t, "disk", got.Keyword)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 4, got.Limit)
}

func TestUpdateProduct_ConflictSurfaces(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(reviewTestProduct(), nil)
	repo.On("Update", ctx, mock.Anything).Return(apperrors.Conflict("product", "prod-1"))

	price := int64(3999)
	_, err := svc.UpdateProduct(ctx, "prod-1", &UpdateProductInput{Price: &price})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateProduct_PartialUpdate(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(reviewTestProduct(), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	stock := 25
	product, err := svc.UpdateProduct(ctx, "prod-1", &UpdateProductInput{Stock: &stock})

	require.NoError(t, err)
	assert.Equal(t, 25, product.Stock)
	assert.Equal(t, "SanDisk Ultra 128GB", product.Name)
}

func TestAddProductImage_StorageFailure(t *testing.T) {
	repo := new(mockProductRepository)
	store := new(mockStorage)
	svc := newTestProductService(repo, store)
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(reviewTestProduct(), nil)
	store.On("Upload", ctx, mock.AnythingOfType("*storage.UploadInput")).
		Return(nil, errors.New("gateway unreachable"))

	_, err := svc.AddProductImage(ctx, "prod-1", "photo.jpg", "image/jpeg", 1024, strings.NewReader("fake"))

	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAddProductImage_Success(t *testing.T) {
	repo := new(mockProductRepository)
	store := new(mockStorage)
	svc := newTestProductService(repo, store)
	ctx := context.Background()

	repo.On("GetByID", ctx, "prod-1").Return(reviewTestProduct(), nil)
	store.On("Upload", ctx, mock.AnythingOfType("*storage.UploadInput")).
		Return(&storage.UploadResult{Key: "products/prod-1/abc-photo.jpg", URL: "http://blob/products/prod-1/abc-photo.jpg"}, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.AddProductImage(ctx, "prod-1", "photo.jpg", "image/jpeg", 1024, strings.NewReader("fake"))

	require.NoError(t, err)
	require.Len(t, product.Images, 1)
	assert.Equal(t, "products/prod-1/abc-photo.jpg", product.Images[0].Key)
}

func TestDeleteProduct_CleansUpBlobs(t *testing.T) {
	repo := new(mockProductRepository)
	store := new(mockStorage)
	svc := newTestProductService(repo, store)
	ctx := context.Background()

	product := reviewTestProduct()
	product.Images = []domain.ProductImage{{Key: "products/prod-1/img-1", URL: "http://blob/img-1"}}

	repo.On("GetByID", ctx, "prod-1").Return(product, nil)
	repo.On("Delete", ctx, "prod-1").Return(nil)
	store.On("Delete", ctx, "products/prod-1/img-1").Return(nil)

	err := svc.DeleteProduct(ctx, "prod-1")

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := newTestProductService(repo, new(mockStorage))
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("product", "missing"))

	err := svc.DeleteProduct(ctx, "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
