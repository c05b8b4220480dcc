package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockflow-backend/internal/bill"
	"stockflow-backend/internal/mailer"
	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"
	"stockflow-backend/internal/storage"
	"stockflow-backend/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSaleNotFound = errors.New("sale not found or unauthorized")
	ErrBillNotFound = errors.New("bill not found")
)

// ValidationError carries user-correctable order failures. Handlers map it
// to a 400 response; everything else is a 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err is user-correctable.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type SaleLine struct {
	ProductID uuid.UUID `json:"productId" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CreateSaleRequest struct {
	Customer      string     `json:"customer" validate:"required"`
	CustomerEmail string     `json:"customermail" validate:"required,email"`
	Products      []SaleLine `json:"products" validate:"required,min=1,dive"`
	Discount      float64    `json:"discount"`
}

// SaleListItem is the list-view projection of a sale, with the bill URL
// rewritten to force a download.
type SaleListItem struct {
	ID            uuid.UUID `json:"id"`
	Customer      string    `json:"customer"`
	CustomerEmail string    `json:"customermail"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	Amount        float64   `json:"amount"`
	Date          string    `json:"date"`
	BillStatus    model.BillStatus `json:"bill_status"`
	PdfURL        string    `json:"pdf_url,omitempty"`
}

type SalesService interface {
	CreateSale(ownerID uuid.UUID, req *CreateSaleRequest) ([]*model.Sale, error)
	GetSales(ownerID uuid.UUID) ([]SaleListItem, error)
	GetBillURL(id, ownerID uuid.UUID) (string, error)
}

type salesService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	notifier    NotificationService
	db          *gorm.DB
	render      bill.RenderFunc
	store       storage.BillStorage
	mail        mailer.Mailer
	log         *zap.Logger
}

func NewSalesService(
	pRepo repository.ProductRepository,
	sRepo repository.SaleRepository,
	uRepo repository.UserRepository,
	aRepo repository.AuditRepository,
	notifier NotificationService,
	db *gorm.DB,
	render bill.RenderFunc,
	store storage.BillStorage,
	mail mailer.Mailer,
	log *zap.Logger,
) SalesService {
	return &salesService{
		productRepo: pRepo,
		saleRepo:    sRepo,
		userRepo:    uRepo,
		auditRepo:   aRepo,
		notifier:    notifier,
		db:          db,
		render:      render,
		store:       store,
		mail:        mail,
		log:         log,
	}
}

type pickedLine struct {
	product  *model.Product
	quantity int
}

// CreateSale runs the sale transaction pipeline: all-or-nothing validation,
// an atomic commit of inventory deductions and sale records, then
// best-effort bill generation, upload, and email. Side-effect failures
// after the commit never unwind the sale; a failed upload is recorded as
// bill_status FAILED on every line.
func (s *salesService) CreateSale(ownerID uuid.UUID, req *CreateSaleRequest) ([]*model.Sale, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, &ValidationError{validator.FirstError(errs)}
	}

	// Discount gate runs before any product lookup
	if req.Discount < 0 || req.Discount > 100 {
		return nil, &ValidationError{"Invalid discount percentage"}
	}

	// Phase 1: validate every line before touching anything. The scan never
	// aborts early so the caller gets every reason at once.
	var validationErrors []string
	var picked []pickedLine

	for _, line := range req.Products {
		product, err := s.productRepo.FindByIDAndOwner(line.ProductID, ownerID)
		if err != nil {
			validationErrors = append(validationErrors,
				fmt.Sprintf("Product %s not found or unauthorized", line.ProductID))
			continue
		}

		if product.Inventory < line.Quantity {
			validationErrors = append(validationErrors,
				fmt.Sprintf("Insufficient inventory for %q. Available: %d, Requested: %d",
					product.Name, product.Inventory, line.Quantity))
			continue
		}

		picked = append(picked, pickedLine{product: product, quantity: line.Quantity})
	}

	if len(validationErrors) > 0 {
		return nil, &ValidationError{strings.Join(validationErrors, "; ")}
	}

	// Phase 2: commit. Inventory deductions, sale inserts, and the owner's
	// lifetime counter ride one database transaction, so a mid-loop failure
	// rolls everything back instead of leaving the order half-committed.
	now := time.Now()
	sales := make([]*model.Sale, 0, len(picked))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, pl := range picked {
			// Conditional decrement: a concurrent order may have drained
			// the stock since validation. Zero rows means shortfall
			// discovered at commit time; rolling back the transaction
			// undoes the lines already deducted.
			rows, err := s.productRepo.DeductInventory(tx, pl.product.ID, ownerID, pl.quantity, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return &ValidationError{fmt.Sprintf(
					"Insufficient inventory for %q. Available: %d, Requested: %d",
					pl.product.Name, pl.product.Inventory, pl.quantity)}
			}
			pl.product.Inventory -= pl.quantity
			pl.product.LastSoldAt = &now

			subtotal := pl.product.Price * float64(pl.quantity)
			amount := subtotal * (1 - req.Discount/100)

			sales = append(sales, &model.Sale{
				OwnerID:       ownerID,
				Customer:      req.Customer,
				CustomerEmail: req.CustomerEmail,
				ProductID:     pl.product.ID,
				ProductName:   pl.product.Name,
				Quantity:      pl.quantity,
				Price:         pl.product.Price,
				CP:            pl.product.CP,
				Subtotal:      subtotal,
				Discount:      req.Discount,
				Amount:        amount,
				Date:          now,
				BillStatus:    model.BillPending,
			})
		}

		// All lines in one bulk insert
		if err := s.saleRepo.CreateBatch(tx, sales); err != nil {
			return err
		}

		return s.userRepo.IncrementSalesCreated(tx, ownerID, len(sales))
	})
	if err != nil {
		return nil, err
	}

	// Phase 3: post-commit side effects. Nothing below may fail the sale.
	for _, pl := range picked {
		s.notifier.CheckLowStock(pl.product)
		s.notifier.CheckForecast(pl.product)
	}

	for _, sale := range sales {
		if err := s.auditRepo.Log(ownerID, model.ActionCreateSale, "sale", sale.ID, nil, sale); err != nil {
			s.log.Warn("audit log write failed", zap.String("sale_id", sale.ID.String()), zap.Error(err))
		}
	}

	// Phase 4: one bill covers every line of the order. Rendering is the
	// only synchronous dependency left before the response.
	billData := bill.Data{
		InvoiceNo:          fmt.Sprintf("%d", now.UnixMilli()),
		CustomerName:       req.Customer,
		CustomerEmail:      req.CustomerEmail,
		DiscountPercentage: req.Discount,
	}
	for _, sale := range sales {
		billData.Lines = append(billData.Lines, bill.Line{
			ProductName: sale.ProductName,
			Price:       sale.Price,
			Quantity:    sale.Quantity,
			Amount:      sale.Amount,
		})
		billData.Subtotal += sale.Subtotal
		billData.DiscountAmount += sale.Subtotal - sale.Amount
	}

	pdf, err := s.render(billData)
	if err != nil {
		return nil, fmt.Errorf("generate bill: %w", err)
	}

	ids := make([]uuid.UUID, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
	}

	fileName := fmt.Sprintf("bill_%d.pdf", now.UnixMilli())
	url, err := s.store.UploadBill(context.Background(), pdf, fileName)
	if err != nil {
		s.log.Error("bill upload failed", zap.Error(err))
		if dbErr := s.saleRepo.SetBillResult(ids, model.BillFailed, nil); dbErr != nil {
			s.log.Error("failed to mark bills FAILED", zap.Error(dbErr))
		}
		for _, sale := range sales {
			sale.BillStatus = model.BillFailed
		}
	} else {
		if dbErr := s.saleRepo.SetBillResult(ids, model.BillGenerated, &url); dbErr != nil {
			s.log.Error("failed to mark bills GENERATED", zap.Error(dbErr))
		}
		for _, sale := range sales {
			sale.BillStatus = model.BillGenerated
			sale.PdfURL = &url
		}
	}

	// Phase 5: email never blocks the response
	go s.emailBill(req.Customer, req.CustomerEmail, pdf)

	return sales, nil
}

func (s *salesService) emailBill(customer, email string, pdf []byte) {
	subject := "Your Purchase Receipt - StockFlow ERP"
	body := fmt.Sprintf("Dear %s,\n\nThank you for your purchase!\n\n"+
		"Please find your bill attached to this email.\n\n"+
		"If you have any questions, please don't hesitate to contact us.\n\n"+
		"Best regards,\nStockFlow ERP", customer)

	if err := s.mail.Send(email, subject, body, pdf); err != nil {
		s.log.Error("bill email failed", zap.String("to", email), zap.Error(err))
		return
	}
	s.log.Info("bill email sent", zap.String("to", email))
}

func (s *salesService) GetSales(ownerID uuid.UUID) ([]SaleListItem, error) {
	sales, err := s.saleRepo.FindByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	items := make([]SaleListItem, len(sales))
	for i, sale := range sales {
		item := SaleListItem{
			ID:            sale.ID,
			Customer:      sale.Customer,
			CustomerEmail: sale.CustomerEmail,
			ProductName:   sale.ProductName,
			Quantity:      sale.Quantity,
			Amount:        sale.Amount,
			Date:          sale.Date.Format("2006-01-02"),
			BillStatus:    sale.BillStatus,
		}
		if sale.PdfURL != nil {
			item.PdfURL = storage.DownloadURL(*sale.PdfURL)
		}
		items[i] = item
	}
	return items, nil
}

func (s *salesService) GetBillURL(id, ownerID uuid.UUID) (string, error) {
	sale, err := s.saleRepo.FindByIDAndOwner(id, ownerID)
	if err != nil {
		return "", ErrSaleNotFound
	}
	if sale.PdfURL == nil || *sale.PdfURL == "" {
		return "", ErrBillNotFound
	}
	return *sale.PdfURL, nil
}
