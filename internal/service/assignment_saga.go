package service

import (
	"context"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"sat_practice_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// sagaStep 一个写入阶段及其补偿；补偿需可重复执行
type sagaStep struct {
	name       string
	stage      error
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga 依次执行各阶段；某阶段失败时按相反顺序补偿（包括失败阶段本身），
// 返回带阶段标识的错误
func runSaga(ctx context.Context, steps []sagaStep) error {
	done := make([]sagaStep, 0, len(steps))
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			logger.Log.Error("Saga stage failed", zap.String("stage", step.name), zap.Error(err))
			compensate(context.WithoutCancel(ctx), append(done, step))
			return util.NewStageError(step.stage, err)
		}
		done = append(done, step)
	}
	return nil
}

func compensate(ctx context.Context, steps []sagaStep) {
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.compensate == nil {
			continue
		}
		monitoring.AssignmentSagaCompensations.WithLabelValues(step.name).Inc()
		if err := step.compensate(ctx); err != nil {
			logger.Log.Error("Saga compensation failed", zap.String("stage", step.name), zap.Error(err))
		}
	}
}
