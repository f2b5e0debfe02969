package repository

import (
	"context"
	"time"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TriangleRepository struct {
	db *gorm.DB
}

func NewTriangleRepository(db *gorm.DB) *TriangleRepository {
	return &TriangleRepository{db: db}
}

type TriangleFilter struct {
	Status   string
	PlanType string
	Page
}

// TriangleFill pairs a triangle with its number of occupied slots.
type TriangleFill struct {
	models.Triangle
	Filled int64 `json:"filled"`
}

func (r *TriangleRepository) GetByID(ctx context.Context, id uint) (*models.Triangle, error) {
	var t models.Triangle
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, wrap(err, "get triangle %d", id)
	}
	return &t, nil
}

// FindOpenForUpdate locks the oldest open triangle of a plan.
func (r *TriangleRepository) FindOpenForUpdate(ctx context.Context, plan string) (*models.Triangle, error) {
	var t models.Triangle
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("plan_type = ? AND status = ?", plan, domain.TriangleOpen).
		Order("id ASC").
		First(&t).Error
	if err != nil {
		return nil, wrap(err, "find open %s triangle", plan)
	}
	return &t, nil
}

// Create inserts an open triangle together with all of its empty slots.
func (r *TriangleRepository) Create(ctx context.Context, plan string) (*models.Triangle, error) {
	t := &models.Triangle{
		PlanType:  plan,
		Status:    domain.TriangleOpen,
		Positions: make([]models.Position, domain.PositionsPerTriangle),
	}
	for i := range t.Positions {
		t.Positions[i].Slot = i
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, errors.Wrapf(err, "create %s triangle", plan)
	}
	return t, nil
}

// NextFreePosition locks the lowest unoccupied slot of a triangle.
func (r *TriangleRepository) NextFreePosition(ctx context.Context, triangleID uint) (*models.Position, error) {
	var p models.Position
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("triangle_id = ? AND user_id IS NULL", triangleID).
		Order("slot ASC").
		First(&p).Error
	if err != nil {
		return nil, wrap(err, "next free position of triangle %d", triangleID)
	}
	return &p, nil
}

// FillPosition occupies a slot if it is still empty and reports whether it did.
func (r *TriangleRepository) FillPosition(ctx context.Context, positionID, userID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Position{}).
		Where("id = ? AND user_id IS NULL", positionID).
		Updates(map[string]interface{}{"user_id": userID, "filled_at": at})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "fill position %d", positionID)
	}
	return res.RowsAffected == 1, nil
}

// CountFilled counts occupied slots with a locking read, so inside a
// transaction it sees fills committed after the transaction's snapshot.
// Aggregates cannot take row locks on postgres, hence the id scan.
func (r *TriangleRepository) CountFilled(ctx context.Context, triangleID uint) (int64, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Position{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("triangle_id = ? AND user_id IS NOT NULL", triangleID).
		Pluck("id", &ids).Error
	return int64(len(ids)), errors.Wrapf(err, "count filled positions of triangle %d", triangleID)
}

// Transition moves a triangle between lifecycle states if it still holds from.
// Extra columns in updates are written in the same statement.
func (r *TriangleRepository) Transition(ctx context.Context, id uint, from, to string, updates map[string]interface{}) (bool, error) {
	set := map[string]interface{}{"status": to}
	for k, v := range updates {
		set[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.Triangle{}).
		Where("id = ? AND status = ?", id, from).
		Updates(set)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "transition triangle %d to %s", id, to)
	}
	return res.RowsAffected == 1, nil
}

// LatestPositionForUser returns the user's most recently filled position with
// its triangle. Ties on filled_at fall back to the higher id.
func (r *TriangleRepository) LatestPositionForUser(ctx context.Context, userID uint) (*models.Position, error) {
	var p models.Position
	err := r.db.WithContext(ctx).
		Preload("Triangle").
		Where("user_id = ?", userID).
		Order("filled_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		return nil, wrap(err, "latest position of user %d", userID)
	}
	return &p, nil
}

// LatestPositionsForUsers is the batch form of LatestPositionForUser.
func (r *TriangleRepository) LatestPositionsForUsers(ctx context.Context, userIDs []uint) (map[uint]models.Position, error) {
	out := make(map[uint]models.Position, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var list []models.Position
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("filled_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, errors.Wrap(err, "latest positions")
	}
	for _, p := range list {
		if p.UserID == nil {
			continue
		}
		if _, seen := out[*p.UserID]; !seen {
			out[*p.UserID] = p
		}
	}
	return out, nil
}

// ListPositions returns every slot of a triangle in slot order with occupants loaded.
func (r *TriangleRepository) ListPositions(ctx context.Context, triangleID uint) ([]models.Position, error) {
	var list []models.Position
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("triangle_id = ?", triangleID).
		Order("slot ASC").
		Find(&list).Error
	return list, errors.Wrapf(err, "list positions of triangle %d", triangleID)
}

func (r *TriangleRepository) OccupantIDs(ctx context.Context, triangleID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Position{}).
		Where("triangle_id = ? AND user_id IS NOT NULL", triangleID).
		Order("slot ASC").
		Pluck("user_id", &ids).Error
	return ids, errors.Wrapf(err, "occupants of triangle %d", triangleID)
}

func (r *TriangleRepository) List(ctx context.Context, f TriangleFilter) ([]TriangleFill, int64, error) {
	p := f.Page.Normalize()
	q := r.db.WithContext(ctx).Model(&models.Triangle{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PlanType != "" {
		q = q.Where("plan_type = ?", f.PlanType)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count triangles")
	}
	var triangles []models.Triangle
	if err := q.Order("id DESC").Limit(p.Limit).Offset(p.Offset()).Find(&triangles).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list triangles")
	}
	if len(triangles) == 0 {
		return []TriangleFill{}, total, nil
	}

	ids := make([]uint, len(triangles))
	for i, t := range triangles {
		ids[i] = t.ID
	}
	var counts []struct {
		TriangleID uint
		Filled     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Position{}).
		Select("triangle_id, COUNT(*) AS filled").
		Where("triangle_id IN ? AND user_id IS NOT NULL", ids).
		Group("triangle_id").
		Scan(&counts).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "count triangle fills")
	}
	filled := make(map[uint]int64, len(counts))
	for _, c := range counts {
		filled[c.TriangleID] = c.Filled
	}
	out := make([]TriangleFill, len(triangles))
	for i, t := range triangles {
		out[i] = TriangleFill{Triangle: t, Filled: filled[t.ID]}
	}
	return out, total, nil
}
