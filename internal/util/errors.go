package util

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUserNotFound     = errors.New("user not found")

	// 错题模块
	ErrFetchFailed         = errors.New("fetch failed")
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrMistakeNotFound     = errors.New("mistake not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrSessionNotFound     = errors.New("practice session not found")
	ErrSessionConsumed     = errors.New("practice session already consumed")
	ErrSessionCreateFailed = errors.New("session create failed")

	// 补救作业
	ErrExamCreateFailed       = errors.New("exam create failed")
	ErrQuestionLinkFailed     = errors.New("question link failed")
	ErrAssignmentCreateFailed = errors.New("assignment create failed")
	ErrDraftNotFound          = errors.New("assignment draft not found")
	ErrDraftState             = errors.New("assignment draft is in the wrong step")
)

// StageError 表示多步写入中某一阶段失败，保留底层错误信息用于展示
type StageError struct {
	Stage error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage.Error()
	}
	return fmt.Sprintf("%s: %v", e.Stage.Error(), e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}

func NewStageError(stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
