package service

import (
	"context"

	"royaltriangle/internal/repository"

	"gorm.io/gorm"
)

func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Users:        repository.NewUserRepository(db),
		Plans:        repository.NewPlanRepository(db),
		Transactions: repository.NewTransactionRepository(db),
		Triangles:    repository.NewTriangleRepository(db),
	}
}

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}
