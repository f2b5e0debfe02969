package service

import (
	"context"
	"testing"
	"time"

	"royaltriangle/internal/service/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// inlineUnitOfWork runs fn against the same mocks instead of a real transaction.
type inlineUnitOfWork struct {
	repos Repos
}

func (u inlineUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	return fn(u.repos)
}

type testRepos struct {
	users     *mocks.MockUserRepository
	plans     *mocks.MockPlanRepository
	txs       *mocks.MockTransactionRepository
	triangles *mocks.MockTriangleRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		users:     &mocks.MockUserRepository{},
		plans:     &mocks.MockPlanRepository{},
		txs:       &mocks.MockTransactionRepository{},
		triangles: &mocks.MockTriangleRepository{},
	}
}

func (r *testRepos) repos() Repos {
	return Repos{Users: r.users, Plans: r.plans, Transactions: r.txs, Triangles: r.triangles}
}

func (r *testRepos) uow() UnitOfWork {
	return inlineUnitOfWork{repos: r.repos()}
}

func (r *testRepos) assertExpectations(t *testing.T) {
	r.users.AssertExpectations(t)
	r.plans.AssertExpectations(t)
	r.txs.AssertExpectations(t)
	r.triangles.AssertExpectations(t)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value rather than representation.
func decEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func anyNotify(n *mocks.MockNotifier) {
	n.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
}

func ptrUint(v uint) *uint { return &v }

func ptrTime(t time.Time) *time.Time { return &t }
