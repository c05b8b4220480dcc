package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"stockflow-backend/internal/bill"
	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// One in-memory SQLite DB per connection; pin the pool to one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.ResetToken{},
		&model.Notification{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

type stubStorage struct {
	url   string
	err   error
	calls int
}

func (s *stubStorage) UploadBill(_ context.Context, _ []byte, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type stubMailer struct {
	sent chan string
	err  error
}

func newStubMailer() *stubMailer {
	return &stubMailer{sent: make(chan string, 10)}
}

func (m *stubMailer) Send(to, _, _ string, _ []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent <- to
	return nil
}

func (m *stubMailer) SendHTML(to, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent <- to
	return nil
}

func renderStub(_ bill.Data) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

// countingProductRepo spies on product lookups.
type countingProductRepo struct {
	repository.ProductRepository
	lookups int
}

func (r *countingProductRepo) FindByIDAndOwner(id, ownerID uuid.UUID) (*model.Product, error) {
	r.lookups++
	return r.ProductRepository.FindByIDAndOwner(id, ownerID)
}

type salesFixture struct {
	db       *gorm.DB
	svc      SalesService
	storage  *stubStorage
	mail     *stubMailer
	products *countingProductRepo
	owner    *model.User
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()

	db := setupTestDB(t)
	f := &salesFixture{
		db:      db,
		storage: &stubStorage{url: "https://res.cloudinary.com/demo/raw/upload/v123/stockflow_bills/bill_1.pdf"},
		mail:    newStubMailer(),
	}

	f.owner = &model.User{Email: "owner@example.com", FullName: "Owner", IsActive: true}
	require.NoError(t, f.owner.SetPassword("secret123"))
	require.NoError(t, db.Create(f.owner).Error)

	f.products = &countingProductRepo{ProductRepository: repository.NewProductRepo(db)}

	notifier := NewNotificationService(repository.NewNotificationRepo(db), nil, zap.NewNop())
	f.svc = NewSalesService(
		f.products,
		repository.NewSaleRepo(db),
		repository.NewUserRepo(db),
		repository.NewAuditRepo(db),
		notifier,
		db,
		renderStub,
		f.storage,
		f.mail,
		zap.NewNop(),
	)
	return f
}

func (f *salesFixture) createProduct(t *testing.T, name string, inventory int, price float64) *model.Product {
	t.Helper()
	p := &model.Product{
		OwnerID:   f.owner.ID,
		SKU:       strings.ToUpper(name),
		Name:      name,
		Inventory: inventory,
		Price:     price,
		CP:        price / 2,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *salesFixture) reloadProduct(t *testing.T, id uuid.UUID) *model.Product {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return &p
}

func (f *salesFixture) countSales(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Sale{}).Count(&n).Error)
	return n
}

func TestCreateSale_SingleLine(t *testing.T) {
	f := newSalesFixture(t)
	p := f.createProduct(t, "widget", 10, 50)

	sales, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Asha",
		CustomerEmail: "asha@example.com",
		Products:      []SaleLine{{ProductID: p.ID, Quantity: 4}},
		Discount:      10,
	})
	require.NoError(t, err)
	require.Len(t, sales, 1)

	// amount = 4 * 50 * 0.9
	assert.InDelta(t, 180.0, sales[0].Amount, 0.001)
	assert.InDelta(t, 200.0, sales[0].Subtotal, 0.001)
	assert.Equal(t, model.BillGenerated, sales[0].BillStatus)
	require.NotNil(t, sales[0].PdfURL)
	assert.Equal(t, f.storage.url, *sales[0].PdfURL)

	// inventory 10 -> 6, last_sold_at set
	reloaded := f.reloadProduct(t, p.ID)
	assert.Equal(t, 6, reloaded.Inventory)
	assert.NotNil(t, reloaded.LastSoldAt)

	// persisted bill state matches
	var stored model.Sale
	require.NoError(t, f.db.First(&stored, "id = ?", sales[0].ID).Error)
	assert.Equal(t, model.BillGenerated, stored.BillStatus)
	require.NotNil(t, stored.PdfURL)

	// owner's lifetime counter incremented
	var owner model.User
	require.NoError(t, f.db.First(&owner, "id = ?", f.owner.ID).Error)
	assert.Equal(t, int64(1), owner.TotalSalesCreated)

	// audit entry written
	var audits int64
	require.NoError(t, f.db.Model(&model.AuditLog{}).
		Where("action = ? AND entity_id = ?", model.ActionCreateSale, sales[0].ID).
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	// email fired (asynchronously)
	select {
	case to := <-f.mail.sent:
		assert.Equal(t, "asha@example.com", to)
	case <-time.After(2 * time.Second):
		t.Fatal("expected bill email to be sent")
	}
}

func TestCreateSale_ShortfallRejectsWholeOrder(t *testing.T) {
	f := newSalesFixture(t)
	a := f.createProduct(t, "alpha", 5, 100)
	b := f.createProduct(t, "beta", 1, 20)

	_, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Ravi",
		CustomerEmail: "ravi@example.com",
		Products: []SaleLine{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "beta")
	assert.Contains(t, err.Error(), "Available: 1, Requested: 3")

	// nothing mutated, nothing created
	assert.Equal(t, 5, f.reloadProduct(t, a.ID).Inventory)
	assert.Equal(t, 1, f.reloadProduct(t, b.ID).Inventory)
	assert.Equal(t, int64(0), f.countSales(t))
	assert.Equal(t, 0, f.storage.calls)
}

func TestCreateSale_CollectsEveryLineError(t *testing.T) {
	f := newSalesFixture(t)
	b := f.createProduct(t, "beta", 1, 20)
	missing := uuid.New()

	_, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Ravi",
		CustomerEmail: "ravi@example.com",
		Products: []SaleLine{
			{ProductID: missing, Quantity: 1},
			{ProductID: b.ID, Quantity: 5},
		},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// Both reasons come back, joined
	assert.Contains(t, err.Error(), "not found or unauthorized")
	assert.Contains(t, err.Error(), "Insufficient inventory")
	assert.Contains(t, err.Error(), "; ")
}

func TestCreateSale_ForeignProductRejected(t *testing.T) {
	f := newSalesFixture(t)

	other := &model.User{Email: "other@example.com", FullName: "Other", IsActive: true}
	require.NoError(t, other.SetPassword("secret123"))
	require.NoError(t, f.db.Create(other).Error)

	theirs := &model.Product{OwnerID: other.ID, SKU: "X1", Name: "theirs", Inventory: 50, Price: 10}
	require.NoError(t, f.db.Create(theirs).Error)

	_, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Mia",
		CustomerEmail: "mia@example.com",
		Products:      []SaleLine{{ProductID: theirs.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "not found or unauthorized")

	// Cross-owner order must not touch the other owner's stock
	var p model.Product
	require.NoError(t, f.db.First(&p, "id = ?", theirs.ID).Error)
	assert.Equal(t, 50, p.Inventory)
}

func TestCreateSale_DiscountGateRunsBeforeLookups(t *testing.T) {
	f := newSalesFixture(t)
	p := f.createProduct(t, "widget", 10, 50)

	for _, discount := range []float64{-1, 100.5, 500} {
		_, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
			Customer:      "Asha",
			CustomerEmail: "asha@example.com",
			Products:      []SaleLine{{ProductID: p.ID, Quantity: 1}},
			Discount:      discount,
		})
		require.Error(t, err, "discount %v", discount)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "discount")
	}

	// The gate fires before any product resolution
	assert.Equal(t, 0, f.products.lookups)
	assert.Equal(t, int64(0), f.countSales(t))
}

func TestCreateSale_UploadFailureMarksBillsFailed(t *testing.T) {
	f := newSalesFixture(t)
	f.storage.err = errors.New("cdn unreachable")
	p := f.createProduct(t, "widget", 10, 50)

	sales, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Asha",
		CustomerEmail: "asha@example.com",
		Products:      []SaleLine{{ProductID: p.ID, Quantity: 2}},
	})

	// Upload failure never fails the request
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, model.BillFailed, sales[0].BillStatus)
	assert.Nil(t, sales[0].PdfURL)

	var stored model.Sale
	require.NoError(t, f.db.First(&stored, "id = ?", sales[0].ID).Error)
	assert.Equal(t, model.BillFailed, stored.BillStatus)
	assert.Nil(t, stored.PdfURL)

	// The sale itself stays committed
	assert.Equal(t, 8, f.reloadProduct(t, p.ID).Inventory)
}

func TestCreateSale_RenderFailurePropagates(t *testing.T) {
	f := newSalesFixture(t)
	p := f.createProduct(t, "widget", 10, 50)

	broken := func(_ bill.Data) ([]byte, error) { return nil, errors.New("font table corrupt") }
	svc := f.svc.(*salesService)
	svc.render = broken

	_, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Asha",
		CustomerEmail: "asha@example.com",
		Products:      []SaleLine{{ProductID: p.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.False(t, IsValidationError(err))

	// The commit already happened; only the bill is missing
	assert.Equal(t, 9, f.reloadProduct(t, p.ID).Inventory)
	assert.Equal(t, int64(1), f.countSales(t))
	var stored model.Sale
	require.NoError(t, f.db.First(&stored).Error)
	assert.Equal(t, model.BillPending, stored.BillStatus)
	assert.Equal(t, 0, f.storage.calls)
}

func TestCreateSale_MultiLineTotals(t *testing.T) {
	f := newSalesFixture(t)
	a := f.createProduct(t, "alpha", 100, 99.99)
	b := f.createProduct(t, "beta", 100, 0.01)
	discount := 12.5

	sales, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Noor",
		CustomerEmail: "noor@example.com",
		Products: []SaleLine{
			{ProductID: a.ID, Quantity: 3},
			{ProductID: b.ID, Quantity: 7},
		},
		Discount: discount,
	})
	require.NoError(t, err)
	require.Len(t, sales, 2)

	var subtotal, grandTotal float64
	for _, s := range sales {
		subtotal += s.Subtotal
		grandTotal += s.Amount
	}
	expected := subtotal * (1 - discount/100)
	assert.InDelta(t, expected, grandTotal, 0.005, "grand total must match to the cent")
}

func TestGetSales_NewestFirstWithDownloadURLs(t *testing.T) {
	f := newSalesFixture(t)

	url := "https://res.cloudinary.com/demo/raw/upload/v9/stockflow_bills/bill_9.pdf"
	older := &model.Sale{
		OwnerID: f.owner.ID, Customer: "A", CustomerEmail: "a@example.com",
		ProductID: uuid.New(), ProductName: "alpha", Quantity: 1,
		Price: 10, Subtotal: 10, Amount: 10,
		Date: time.Now().Add(-48 * time.Hour), BillStatus: model.BillFailed,
	}
	newer := &model.Sale{
		OwnerID: f.owner.ID, Customer: "B", CustomerEmail: "b@example.com",
		ProductID: uuid.New(), ProductName: "beta", Quantity: 2,
		Price: 5, Subtotal: 10, Amount: 10,
		Date: time.Now(), BillStatus: model.BillGenerated, PdfURL: &url,
	}
	require.NoError(t, f.db.Create(older).Error)
	require.NoError(t, f.db.Create(newer).Error)

	items, err := f.svc.GetSales(f.owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "B", items[0].Customer)
	assert.Contains(t, items[0].PdfURL, "/upload/fl_attachment/")
	assert.Empty(t, items[1].PdfURL)
}

func TestGetBillURL(t *testing.T) {
	f := newSalesFixture(t)

	url := "https://res.cloudinary.com/demo/raw/upload/v9/stockflow_bills/bill_9.pdf"
	withBill := &model.Sale{
		OwnerID: f.owner.ID, Customer: "A", CustomerEmail: "a@example.com",
		ProductID: uuid.New(), ProductName: "alpha", Quantity: 1,
		Price: 10, Subtotal: 10, Amount: 10,
		Date: time.Now(), BillStatus: model.BillGenerated, PdfURL: &url,
	}
	noBill := &model.Sale{
		OwnerID: f.owner.ID, Customer: "B", CustomerEmail: "b@example.com",
		ProductID: uuid.New(), ProductName: "beta", Quantity: 1,
		Price: 10, Subtotal: 10, Amount: 10,
		Date: time.Now(), BillStatus: model.BillFailed,
	}
	require.NoError(t, f.db.Create(withBill).Error)
	require.NoError(t, f.db.Create(noBill).Error)

	t.Run("generated bill", func(t *testing.T) {
		got, err := f.svc.GetBillURL(withBill.ID, f.owner.ID)
		require.NoError(t, err)
		assert.Equal(t, url, got)
	})

	t.Run("no bill generated", func(t *testing.T) {
		_, err := f.svc.GetBillURL(noBill.ID, f.owner.ID)
		assert.Equal(t, ErrBillNotFound, err)
	})

	t.Run("missing sale", func(t *testing.T) {
		_, err := f.svc.GetBillURL(uuid.New(), f.owner.ID)
		assert.Equal(t, ErrSaleNotFound, err)
	})

	t.Run("foreign owner", func(t *testing.T) {
		_, err := f.svc.GetBillURL(withBill.ID, uuid.New())
		assert.Equal(t, ErrSaleNotFound, err)
	})
}

func TestCreateSale_ResubmissionIsNotIdempotent(t *testing.T) {
	f := newSalesFixture(t)
	p := f.createProduct(t, "widget", 10, 50)

	req := &CreateSaleRequest{
		Customer:      "Asha",
		CustomerEmail: "asha@example.com",
		Products:      []SaleLine{{ProductID: p.ID, Quantity: 3}},
	}

	for i := 0; i < 2; i++ {
		_, err := f.svc.CreateSale(f.owner.ID, req)
		require.NoError(t, err, "submission %d", i+1)
	}

	assert.Equal(t, int64(2), f.countSales(t))
	assert.Equal(t, 4, f.reloadProduct(t, p.ID).Inventory)
}

func TestCreateSale_LowStockAlertEmitted(t *testing.T) {
	f := newSalesFixture(t)
	p := f.createProduct(t, "widget", 12, 50)

	_, err := f.svc.CreateSale(f.owner.ID, &CreateSaleRequest{
		Customer:      "Asha",
		CustomerEmail: "asha@example.com",
		Products:      []SaleLine{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	// 12 -> 7, below the threshold
	var alerts []model.Notification
	require.NoError(t, f.db.Where("product_id = ?", p.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.NotifyLowStock, alerts[0].Kind)
	assert.Equal(t, f.owner.ID, alerts[0].OwnerID)
	assert.Contains(t, alerts[0].Message, fmt.Sprintf("%d", 7))
}
