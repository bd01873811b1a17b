package cashbox

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/club-management/internal"
	cashboxDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/cashbox"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*cashboxDatamodel.CashBox, error)
	GetByID(ctx context.Context, id string) (*cashboxDatamodel.CashBox, error)
	Create(ctx context.Context, box *cashboxDatamodel.CashBox) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// SetDefault flags id and clears every other box in one transaction.
	SetDefault(ctx context.Context, id string) error
	// DeleteAndReassign moves the box's payments, expenses and transfers to
	// targetID, then deletes it, in one transaction.
	DeleteAndReassign(ctx context.Context, id, targetID string) error
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*CashBox, error)
	Get(ctx context.Context, id string) (*CashBox, error)
	Create(ctx context.Context, dto CreateCashBoxDTO) (*CashBox, error)
	Update(ctx context.Context, id string, dto UpdateCashBoxDTO) (*CashBox, error)
	Delete(ctx context.Context, id string) error
	Default(ctx context.Context) (*CashBox, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]*CashBox, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list cash boxes", "error", err)
		return nil, internal.NewInternalError("failed to list cash boxes", err)
	}
	boxes := FromDataModelSlice(rows)
	SortBoxes(boxes)
	return boxes, nil
}

func (s *Service) Get(ctx context.Context, id string) (*CashBox, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if stdErrors.Is(err, internal.ErrCashBoxNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Default returns the box that absorbs unassigned movements, nil when there is none.
func (s *Service) Default(ctx context.Context) (*CashBox, error) {
	boxes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return DefaultOf(boxes), nil
}

// IsDefault reports whether id names the current default box.
func (s *Service) IsDefault(ctx context.Context, id string) (bool, error) {
	box, err := s.Default(ctx)
	if err != nil {
		return false, err
	}
	return box != nil && box.ID == id, nil
}

func (s *Service) Create(ctx context.Context, dto CreateCashBoxDTO) (*CashBox, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	order := len(existing)
	if dto.Order != nil {
		order = *dto.Order
	}
	box := &cashboxDatamodel.CashBox{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		Order:       order,
	}
	if err := s.repo.Create(ctx, box); err != nil {
		s.logger.Error("failed to create cash box", "error", err)
		return nil, internal.NewInternalError("failed to create cash box", err)
	}

	// the first box is the default one
	if dto.IsDefault || len(existing) == 0 {
		if err := s.repo.SetDefault(ctx, box.ID); err != nil {
			return nil, internal.NewInternalError("failed to set default cash box", err)
		}
		box.IsDefault = true
	}

	s.logger.Info("cash box created", "cash_box_id", box.ID, "name", box.Name, "is_default", box.IsDefault)
	return FromDataModel(box), nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateCashBoxDTO) (*CashBox, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.IsDefault != nil && !*dto.IsDefault && current.IsDefault {
		return nil, internal.ErrDefaultCashBox
	}

	fields := map[string]interface{}{}
	if dto.Name != nil {
		fields["name"] = strings.TrimSpace(*dto.Name)
	}
	if dto.Description != nil {
		fields["description"] = dto.Description
	}
	if dto.Order != nil {
		fields["sort_order"] = *dto.Order
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			s.logger.Error("failed to update cash box", "error", err, "cash_box_id", id)
			return nil, internal.NewInternalError("failed to update cash box", err)
		}
	}

	if dto.IsDefault != nil && *dto.IsDefault && !current.IsDefault {
		if err := s.repo.SetDefault(ctx, id); err != nil {
			return nil, internal.NewInternalError("failed to set default cash box", err)
		}
		s.logger.Info("default cash box changed", "cash_box_id", id)
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	boxes, err := s.List(ctx)
	if err != nil {
		return err
	}

	var target *CashBox
	for _, b := range boxes {
		if b.ID == id {
			target = b
		}
	}
	if target == nil {
		return internal.ErrCashBoxNotFound
	}

	def := DefaultOf(boxes)
	if def == nil || def.ID == id {
		return internal.ErrDefaultCashBox
	}

	if err := s.repo.DeleteAndReassign(ctx, id, def.ID); err != nil {
		s.logger.Error("failed to delete cash box", "error", err, "cash_box_id", id)
		return internal.NewInternalError("failed to delete cash box", err)
	}

	s.logger.Info("cash box deleted", "cash_box_id", id, "reassigned_to", def.ID)
	return nil
}
