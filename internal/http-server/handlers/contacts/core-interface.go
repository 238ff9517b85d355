package contacts

import (
	"LeadIntake/entity"
	"context"
)

type Core interface {
	HandleBatch(ctx context.Context, req entity.BatchRequest) (*entity.BatchResult, error)
}
