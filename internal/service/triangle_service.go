package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Placement describes where a deposit landed.
type Placement struct {
	TriangleID  uint
	PlanType    string
	Slot        int
	PositionKey string
	Filled      int64
	Full        bool
	// Occupants is only set when this placement filled the triangle.
	Occupants []uint
	// Recovered holds an open triangle found without free slots and closed
	// on the way.
	Recovered *CompletedTriangle
}

type CompletedTriangle struct {
	TriangleID uint
	PlanType   string
	Occupants  []uint
}

// placeUser puts userID into the lowest free slot of the oldest open triangle
// of plan, opening a new triangle when none exists. It must run inside a unit
// of work: the triangle and slot rows are locked until commit.
//
// Two placements that both find no open triangle each create one; the younger
// one stays open and is used once the older fills.
func placeUser(ctx context.Context, r Repos, userID uint, plan string, now time.Time) (*Placement, error) {
	tri, err := r.Triangles.FindOpenForUpdate(ctx, plan)
	if errors.Is(err, repository.ErrNotFound) {
		tri, err = r.Triangles.Create(ctx, plan)
	}
	if err != nil {
		return nil, err
	}
	var recovered *CompletedTriangle
	pos, err := r.Triangles.NextFreePosition(ctx, tri.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// every slot is taken but the triangle was never closed
		if recovered, err = completeTriangle(ctx, r, tri, now); err != nil {
			return nil, err
		}
		if tri, err = r.Triangles.Create(ctx, plan); err != nil {
			return nil, err
		}
		pos, err = r.Triangles.NextFreePosition(ctx, tri.ID)
	}
	if err != nil {
		return nil, err
	}
	ok, err := r.Triangles.FillPosition(ctx, pos.ID, userID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}
	filled, err := r.Triangles.CountFilled(ctx, tri.ID)
	if err != nil {
		return nil, err
	}

	p := &Placement{
		TriangleID:  tri.ID,
		PlanType:    tri.PlanType,
		Slot:        pos.Slot,
		PositionKey: domain.PositionKey(pos.Slot),
		Filled:      filled,
		Recovered:   recovered,
	}
	if filled < domain.PositionsPerTriangle {
		return p, nil
	}
	done, err := completeTriangle(ctx, r, tri, now)
	if err != nil {
		return nil, err
	}
	p.Full = true
	p.Occupants = done.Occupants
	return p, nil
}

// completeTriangle marks an open triangle FULL and returns its occupants.
func completeTriangle(ctx context.Context, r Repos, tri *models.Triangle, now time.Time) (*CompletedTriangle, error) {
	ok, err := r.Triangles.Transition(ctx, tri.ID, domain.TriangleOpen, domain.TriangleFull,
		map[string]interface{}{"completed_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}
	occupants, err := r.Triangles.OccupantIDs(ctx, tri.ID)
	if err != nil {
		return nil, err
	}
	return &CompletedTriangle{TriangleID: tri.ID, PlanType: tri.PlanType, Occupants: occupants}, nil
}

func fullEvents(c *CompletedTriangle) []event {
	events := make([]event, 0, len(c.Occupants))
	for _, uid := range c.Occupants {
		events = append(events, event{
			userID: uid,
			kind:   domain.NotifyTriangleFull,
			title:  "Triangle complete",
			body:   fmt.Sprintf("%s triangle #%d is full, your payout is pending", c.PlanType, c.TriangleID),
			data:   map[string]interface{}{"triangleId": c.TriangleID},
		})
	}
	return events
}

func placementEvents(userID uint, p *Placement) []event {
	events := []event{{
		userID: userID,
		kind:   domain.NotifyPlaced,
		title:  "Position assigned",
		body:   fmt.Sprintf("You hold position %s in %s triangle #%d", p.PositionKey, p.PlanType, p.TriangleID),
		data:   map[string]interface{}{"triangleId": p.TriangleID, "positionKey": p.PositionKey},
	}}
	if p.Recovered != nil {
		events = append(events, fullEvents(p.Recovered)...)
	}
	if p.Full {
		events = append(events, fullEvents(&CompletedTriangle{
			TriangleID: p.TriangleID, PlanType: p.PlanType, Occupants: p.Occupants,
		})...)
	}
	return events
}

type TriangleService struct {
	repos    Repos
	uow      UnitOfWork
	notifier Notifier
	now      func() time.Time
}

func NewTriangleService(repos Repos, uow UnitOfWork, notifier Notifier) *TriangleService {
	return &TriangleService{repos: repos, uow: uow, notifier: notifier, now: time.Now}
}

type PositionView struct {
	ID          uint    `json:"id"`
	PositionKey string  `json:"positionKey"`
	Username    *string `json:"username"`
	PlanType    *string `json:"planType"`
}

type TriangleView struct {
	ID         uint            `json:"id"`
	PlanType   string          `json:"planType"`
	Status     string          `json:"status"`
	IsComplete bool            `json:"isComplete"`
	Positions  []*PositionView `json:"positions"`
}

type PositionReport struct {
	Triangle        TriangleView `json:"triangle"`
	PositionKey     string       `json:"positionKey"`
	Completion      float64      `json:"completion"`
	FilledPositions int          `json:"filledPositions"`
}

// loadCurrent returns the user's most recent position, its triangle and every
// slot of that triangle.
func (s *TriangleService) loadCurrent(ctx context.Context, userID uint) (*models.Position, *models.Triangle, []models.Position, error) {
	pos, err := s.repos.Triangles.LatestPositionForUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, notFound(err, ErrNoPosition)
	}
	tri := pos.Triangle
	if tri == nil {
		if tri, err = s.repos.Triangles.GetByID(ctx, pos.TriangleID); err != nil {
			return nil, nil, nil, notFound(err, ErrTriangleNotFound)
		}
	}
	slots, err := s.repos.Triangles.ListPositions(ctx, tri.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return pos, tri, slots, nil
}

func countFilled(slots []models.Position) int {
	n := 0
	for _, p := range slots {
		if p.UserID != nil {
			n++
		}
	}
	return n
}

// PositionReport is read-only; it never changes triangle state.
func (s *TriangleService) PositionReport(ctx context.Context, userID uint) (*PositionReport, error) {
	pos, tri, slots, err := s.loadCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := TriangleView{
		ID:         tri.ID,
		PlanType:   tri.PlanType,
		Status:     tri.Status,
		IsComplete: domain.IsTriangleComplete(tri.Status),
		Positions:  make([]*PositionView, domain.PositionsPerTriangle),
	}
	for _, p := range slots {
		if p.Slot < 0 || p.Slot >= domain.PositionsPerTriangle {
			continue
		}
		pv := &PositionView{ID: p.ID, PositionKey: domain.PositionKey(p.Slot)}
		if p.User != nil {
			username, plan := p.User.Username, p.User.Plan
			pv.Username, pv.PlanType = &username, &plan
		}
		view.Positions[p.Slot] = pv
	}
	filled := countFilled(slots)
	return &PositionReport{
		Triangle:        view,
		PositionKey:     domain.PositionKey(pos.Slot),
		Completion:      domain.Completion(filled),
		FilledPositions: filled,
	}, nil
}

type SnapshotSlot struct {
	ID          uint   `json:"id"`
	PositionKey string `json:"positionKey"`
	Username    string `json:"username"`
	Plan        string `json:"plan"`
}

type Snapshot struct {
	TriangleID             uint            `json:"triangleId"`
	PlanType               string          `json:"planType"`
	Status                 string          `json:"status"`
	Completion             float64         `json:"completion"`
	Positions              []*SnapshotSlot `json:"positions"`
	CurrentUserPosition    int             `json:"currentUserPosition"`
	CurrentUserPositionKey string          `json:"currentUserPositionKey"`
}

// Snapshot is the compact board view: occupied slots only, empty ones are null.
func (s *TriangleService) Snapshot(ctx context.Context, userID uint) (*Snapshot, error) {
	pos, tri, slots, err := s.loadCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &Snapshot{
		TriangleID:             tri.ID,
		PlanType:               tri.PlanType,
		Status:                 tri.Status,
		Positions:              make([]*SnapshotSlot, domain.PositionsPerTriangle),
		CurrentUserPosition:    pos.Slot,
		CurrentUserPositionKey: domain.PositionKey(pos.Slot),
	}
	for _, p := range slots {
		if p.User == nil || p.Slot < 0 || p.Slot >= domain.PositionsPerTriangle {
			continue
		}
		out.Positions[p.Slot] = &SnapshotSlot{
			ID:          p.ID,
			PositionKey: domain.PositionKey(p.Slot),
			Username:    p.User.Username,
			Plan:        p.User.Plan,
		}
	}
	out.Completion = domain.Completion(countFilled(slots))
	return out, nil
}

func (s *TriangleService) List(ctx context.Context, f repository.TriangleFilter) ([]repository.TriangleFill, int64, error) {
	return s.repos.Triangles.List(ctx, f)
}

// Advance moves a filled triangle one step along the payout lifecycle.
// FULL -> PAYOUT_PENDING queues the payout; PAYOUT_PENDING -> PAYOUT_SETTLED
// credits every occupant with the plan payout and sets payoutProcessed.
func (s *TriangleService) Advance(ctx context.Context, id uint, target string) (*models.Triangle, error) {
	if target == domain.TriangleFull {
		// only placement fills a triangle
		return nil, ErrInvalidTransition
	}
	var (
		result *models.Triangle
		events []event
	)
	err := s.uow.Do(ctx, func(r Repos) error {
		events = nil
		tri, err := r.Triangles.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrTriangleNotFound)
		}
		if !domain.CanTransitionTriangle(tri.Status, target) {
			return ErrInvalidTransition
		}
		now := s.now()
		updates := map[string]interface{}{}
		if target == domain.TriangleSettled {
			updates["payout_processed"] = true
			updates["payout_settled_at"] = now
		}
		ok, err := r.Triangles.Transition(ctx, tri.ID, tri.Status, target, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentUpdate
		}
		tri.Status = target
		if target == domain.TriangleSettled {
			tri.PayoutProcessed = true
			tri.PayoutSettledAt = &now
			if events, err = s.settlePayout(ctx, r, tri, now); err != nil {
				return err
			}
		}
		result = tri
		return nil
	})
	if err != nil {
		return nil, err
	}
	dispatch(ctx, s.notifier, events)
	return result, nil
}

func (s *TriangleService) settlePayout(ctx context.Context, r Repos, tri *models.Triangle, now time.Time) ([]event, error) {
	plan, err := r.Plans.GetByName(ctx, tri.PlanType)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	occupants, err := r.Triangles.OccupantIDs(ctx, tri.ID)
	if err != nil {
		return nil, err
	}
	meta, _ := json.Marshal(map[string]interface{}{"triangleId": tri.ID, "planType": tri.PlanType})
	events := make([]event, 0, len(occupants))
	for _, uid := range occupants {
		if err := r.Users.AdjustBalance(ctx, uid, plan.Payout, decimal.Zero); err != nil {
			return nil, errors.Wrapf(err, "credit occupant %d", uid)
		}
		settled := now
		err := r.Transactions.Create(ctx, &models.Transaction{
			UserID:        uid,
			Type:          domain.TxTypeEarning,
			Amount:        plan.Payout,
			Status:        domain.TxStatusCompleted,
			TransactionID: newReference(domain.RefPrefixEarning),
			Description:   fmt.Sprintf("Payout for %s triangle #%d", tri.PlanType, tri.ID),
			Metadata:      string(meta),
			SettledAt:     &settled,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, event{
			userID: uid,
			kind:   domain.NotifyPayoutSettled,
			title:  "Payout credited",
			body:   fmt.Sprintf("%s was added to your balance from triangle #%d", plan.Payout.String(), tri.ID),
			data:   map[string]interface{}{"triangleId": tri.ID, "amount": plan.Payout},
		})
	}
	return events, nil
}
