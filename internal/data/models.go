package data

import (
	"errors"

	"github.com/stellar/anchor-demo/internal/db"
)

type Models struct {
	DB       db.ConnectionPool
	Runs     *RunModel
	RunSteps *RunStepModel
}

func NewModels(db db.ConnectionPool) (*Models, error) {
	if db == nil {
		return nil, errors.New("ConnectionPool must be initialized")
	}

	return &Models{
		DB:       db,
		Runs:     &RunModel{DB: db},
		RunSteps: &RunStepModel{DB: db},
	}, nil
}
