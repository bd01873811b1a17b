package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	transferDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/transfer"
	"github.com/frahmantamala/club-management/internal/transfer"
	"gorm.io/gorm"
)

type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) transfer.Repository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, t *transferDatamodel.CashBoxTransfer) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransferRepository) GetByID(ctx context.Context, id string) (*transferDatamodel.CashBoxTransfer, error) {
	var t transferDatamodel.CashBoxTransfer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTransferNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransferRepository) List(ctx context.Context, filter transfer.ListFilter) ([]*transferDatamodel.CashBoxTransfer, error) {
	var transfers []*transferDatamodel.CashBoxTransfer
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.CashBoxID != nil {
		if filter.IncludeUnassigned {
			q = q.Where("(from_cash_box_id = ? OR to_cash_box_id = ? OR (type = 'ALLOCATION' AND to_cash_box_id IS NULL) OR (type = 'WITHDRAWAL' AND from_cash_box_id IS NULL))",
				*filter.CashBoxID, *filter.CashBoxID)
		} else {
			q = q.Where("(from_cash_box_id = ? OR to_cash_box_id = ?)", *filter.CashBoxID, *filter.CashBoxID)
		}
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&transfers).Error
	return transfers, err
}

func (r *TransferRepository) Transition(ctx context.Context, id string, from approval.Status, cols map[string]interface{}) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&transferDatamodel.CashBoxTransfer{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return approval.ErrStale
	}
	return nil
}

func (r *TransferRepository) PendingCounts(ctx context.Context) (approval.Counts, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&transferDatamodel.CashBoxTransfer{}).
		Select("status, COUNT(*) AS n").
		Where("status IN ?", []string{string(approval.StatusPendingTreasurer), string(approval.StatusPendingCommissioner)}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return approval.Counts{}, err
	}
	var c approval.Counts
	for _, row := range rows {
		switch approval.Status(row.Status) {
		case approval.StatusPendingTreasurer:
			c.PendingTreasurer = row.N
		case approval.StatusPendingCommissioner:
			c.PendingCommissioner = row.N
		}
	}
	return c, nil
}
