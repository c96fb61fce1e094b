package service

import (
	"context"

	"StockSignal/internal/domain/models"
)

// Invoker runs one worker computation and always returns a structured outcome.
type Invoker interface {
	Invoke(ctx context.Context, spec models.InvocationSpec) models.InvocationOutcome
}
