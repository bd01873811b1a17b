// Package directory resolves member and cash box ids into the short
// references embedded in API responses.
package directory

import (
	"context"

	cashboxDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/cashbox"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"gorm.io/gorm"
)

type MemberRef struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

type BoxRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Resolver interface {
	Members(ctx context.Context, ids []string) (map[string]MemberRef, error)
	Boxes(ctx context.Context, ids []string) (map[string]BoxRef, error)
}

type GormResolver struct {
	db *gorm.DB
}

func NewGormResolver(db *gorm.DB) *GormResolver {
	return &GormResolver{db: db}
}

func (g *GormResolver) Members(ctx context.Context, ids []string) (map[string]MemberRef, error) {
	out := make(map[string]MemberRef)
	ids = Unique(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []memberDatamodel.Member
	if err := g.db.WithContext(ctx).
		Select("id", "first_name", "last_name", "phone").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ID] = MemberRef{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName, Phone: m.Phone}
	}
	return out, nil
}

func (g *GormResolver) Boxes(ctx context.Context, ids []string) (map[string]BoxRef, error) {
	out := make(map[string]BoxRef)
	ids = Unique(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []cashboxDatamodel.CashBox
	if err := g.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, b := range rows {
		out[b.ID] = BoxRef{ID: b.ID, Name: b.Name}
	}
	return out, nil
}

// Unique drops empty and repeated ids, keeping first-seen order.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Deref appends *id when set.
func Deref(ids []string, id *string) []string {
	if id != nil && *id != "" {
		ids = append(ids, *id)
	}
	return ids
}

func MemberPtr(refs map[string]MemberRef, id *string) *MemberRef {
	if id == nil {
		return nil
	}
	if ref, ok := refs[*id]; ok {
		return &ref
	}
	return &MemberRef{ID: *id}
}

func BoxPtr(refs map[string]BoxRef, id *string) *BoxRef {
	if id == nil {
		return nil
	}
	if ref, ok := refs[*id]; ok {
		return &ref
	}
	return nil
}
