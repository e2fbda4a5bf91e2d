package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/database"
	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/commission"
	"github.com/roofline/backend/internal/utils"
)

// BillingService owns invoices and payments for leads. Every mutation that
// changes revenue facts hands off to the commission engine synchronously,
// so ledger rows can never drift from billing state.
type BillingService struct {
	db     *gorm.DB
	engine *commission.Engine
}

// NewBillingService creates a new billing service
func NewBillingService(db *gorm.DB, engine *commission.Engine) *BillingService {
	return &BillingService{db: db, engine: engine}
}

// CreateInvoice creates the invoice for a lead's job. The opening balance
// due equals the total; cleared payments reduce it.
func (s *BillingService) CreateInvoice(ctx context.Context, leadID uuid.UUID, total decimal.Decimal) (*models.Invoice, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, fmt.Errorf("error finding lead: %w", err)
	}

	invoice := models.Invoice{
		ID:         uuid.New(),
		LeadID:     leadID,
		Number:     utils.GenerateReference("INV"),
		Total:      total.Round(2),
		BalanceDue: total.Round(2),
	}
	now := time.Now().UTC()
	invoice.IssuedAt = &now

	if err := s.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("error creating invoice: %w", err)
	}

	if err := s.engine.OnInvoiceChanged(ctx, leadID); err != nil {
		return nil, fmt.Errorf("error processing commissions for invoice: %w", err)
	}
	return &invoice, nil
}

// UpdateInvoiceTotal changes an invoice's total, shifting the balance due by
// the same delta, then re-bases the lead's commissions.
func (s *BillingService) UpdateInvoiceTotal(ctx context.Context, invoiceID uuid.UUID, total decimal.Decimal) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.WithContext(ctx).First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, fmt.Errorf("error finding invoice: %w", err)
	}

	delta := total.Round(2).Sub(invoice.Total)
	invoice.Total = total.Round(2)
	invoice.BalanceDue = invoice.BalanceDue.Add(delta)
	if err := s.db.WithContext(ctx).Save(&invoice).Error; err != nil {
		return nil, fmt.Errorf("error updating invoice: %w", err)
	}

	if err := s.engine.OnInvoiceChanged(ctx, invoice.LeadID); err != nil {
		return nil, fmt.Errorf("error processing commissions for invoice: %w", err)
	}
	return &invoice, nil
}

// DeleteInvoice soft-deletes an invoice and, atomically with the deletion,
// cancels every non-terminal commission row on the lead. Approved and paid
// rows are untouched.
func (s *BillingService) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	var invoice models.Invoice
	if err := s.db.WithContext(ctx).First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return fmt.Errorf("error finding invoice: %w", err)
	}

	var events []commission.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&invoice).Error; err != nil {
			return fmt.Errorf("error deleting invoice: %w", err)
		}
		var err error
		events, err = s.engine.CancelLead(ctx, database.NewCommissionStore(tx), invoice.LeadID)
		return err
	})
	if err != nil {
		return err
	}
	s.engine.DispatchAll(events)
	return nil
}

// RecordPayment records an uncleared payment against a lead's invoice.
// Commission eligibility reacts only to clearance, not receipt.
func (s *BillingService) RecordPayment(ctx context.Context, leadID uuid.UUID, invoiceID *uuid.UUID, amount decimal.Decimal, method models.PaymentMethod) (*models.Payment, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, "id = ?", leadID).Error; err != nil {
		return nil, fmt.Errorf("error finding lead: %w", err)
	}

	payment := models.Payment{
		ID:        uuid.New(),
		LeadID:    leadID,
		InvoiceID: invoiceID,
		Amount:    amount.Round(2),
		Method:    method,
		Reference: utils.GenerateReference("PAY"),
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("error creating payment: %w", err)
	}
	return &payment, nil
}

// MarkPaymentCleared sets cleared_at on a payment, reduces the invoice
// balance due, and fires the payment-cleared revenue event.
func (s *BillingService) MarkPaymentCleared(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, fmt.Errorf("error finding payment: %w", err)
	}
	if payment.Cleared() {
		return &payment, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		payment.ClearedAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("error updating payment: %w", err)
		}

		if payment.InvoiceID != nil {
			var invoice models.Invoice
			if err := tx.First(&invoice, "id = ?", *payment.InvoiceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return fmt.Errorf("error finding invoice: %w", err)
			}
			invoice.BalanceDue = invoice.BalanceDue.Sub(payment.Amount)
			if invoice.BalanceDue.IsNegative() {
				invoice.BalanceDue = decimal.Zero
			}
			if err := tx.Save(&invoice).Error; err != nil {
				return fmt.Errorf("error updating invoice balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.engine.OnPaymentCleared(ctx, payment.LeadID, payment.ID); err != nil {
		return nil, fmt.Errorf("error processing commissions for payment: %w", err)
	}
	return &payment, nil
}

// GetInvoices returns the lead's non-deleted invoices.
func (s *BillingService) GetInvoices(ctx context.Context, leadID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).Where("lead_id = ?", leadID).Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("error finding invoices: %w", err)
	}
	return invoices, nil
}

// GetPayments returns the lead's non-deleted payments.
func (s *BillingService) GetPayments(ctx context.Context, leadID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.WithContext(ctx).Where("lead_id = ?", leadID).Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("error finding payments: %w", err)
	}
	return payments, nil
}
