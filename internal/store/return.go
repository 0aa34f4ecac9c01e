package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// ReturnStore persists return requests and their refund state.
type ReturnStore struct {
	db *gorm.DB
}

func NewReturnStore(db *gorm.DB) *ReturnStore {
	return &ReturnStore{db: db}
}

// CreateReturn inserts r. The unique index on order_item_id turns concurrent
// duplicate requests into a conflict.
func (s *ReturnStore) CreateReturn(ctx context.Context, r *model.Return) error {
	const op = "ReturnStore.CreateReturn"

	err := s.db.WithContext(ctx).Create(r).Error
	if IsDuplicateKey(err) {
		return domain.ErrReturnExists
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetReturn loads one return.
func (s *ReturnStore) GetReturn(ctx context.Context, id string) (*model.Return, error) {
	const op = "ReturnStore.GetReturn"

	var r model.Return
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.ErrReturnNotFound
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &r, nil
}

// GetReturnByOrderItem loads the return for an order item, if any.
func (s *ReturnStore) GetReturnByOrderItem(ctx context.Context, orderItemID string) (*model.Return, error) {
	const op = "ReturnStore.GetReturnByOrderItem"

	var r model.Return
	err := s.db.WithContext(ctx).First(&r, "order_item_id = ?", orderItemID).Error
	if IsNotFound(err) {
		return nil, domain.ErrReturnNotFound
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &r, nil
}

// ListReturns returns one page of returns, optionally filtered by status,
// newest first.
func (s *ReturnStore) ListReturns(ctx context.Context, status domain.ReturnStatus, page, perPage int) ([]model.Return, int64, error) {
	const op = "ReturnStore.ListReturns"

	q := s.db.WithContext(ctx).Model(&model.Return{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrapErr(op, err)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var returns []model.Return
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&returns).Error
	if err != nil {
		return nil, 0, wrapErr(op, err)
	}
	return returns, total, nil
}

// ListReturnsByOrderItems returns the returns attached to any of the given
// order items.
func (s *ReturnStore) ListReturnsByOrderItems(ctx context.Context, orderItemIDs []string) ([]model.Return, error) {
	const op = "ReturnStore.ListReturnsByOrderItems"

	var returns []model.Return
	if len(orderItemIDs) == 0 {
		return returns, nil
	}
	err := s.db.WithContext(ctx).
		Where("order_item_id IN ?", orderItemIDs).
		Order("created_at DESC").
		Find(&returns).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return returns, nil
}

// SaveReturn persists all fields of r.
func (s *ReturnStore) SaveReturn(ctx context.Context, r *model.Return) error {
	const op = "ReturnStore.SaveReturn"

	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// MarkRefundProcessing conditionally moves a return's refund status to
// PROCESSING. Only PENDING and FAILED (retry) refunds can be claimed.
// Returns false when another writer got there first; the single-row
// compare-and-set is what keeps concurrent refund clicks from double-charging
// the gateway.
func (s *ReturnStore) MarkRefundProcessing(ctx context.Context, id string) (bool, error) {
	const op = "ReturnStore.MarkRefundProcessing"

	res := s.db.WithContext(ctx).Model(&model.Return{}).
		Where("id = ? AND refund_status IN ?", id, []domain.RefundStatus{domain.RefundPending, domain.RefundFailed}).
		Update("refund_status", domain.RefundProcessing)
	if res.Error != nil {
		return false, wrapErr(op, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RecordRefundResult writes the outcome of a gateway refund attempt.
func (s *ReturnStore) RecordRefundResult(ctx context.Context, id string, refundStatus domain.RefundStatus, updates map[string]any) error {
	const op = "ReturnStore.RecordRefundResult"

	if updates == nil {
		updates = map[string]any{}
	}
	updates["refund_status"] = refundStatus
	updates["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).Model(&model.Return{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrReturnNotFound
	}
	return nil
}

// DeleteReturn removes a return record.
func (s *ReturnStore) DeleteReturn(ctx context.Context, id string) error {
	const op = "ReturnStore.DeleteReturn"

	res := s.db.WithContext(ctx).Delete(&model.Return{}, "id = ?", id)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrReturnNotFound
	}
	return nil
}
