package controller

import (
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/service"
	"sat_practice_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

// MistakeController 错题本
type MistakeController struct {
	MistakeService *service.MistakeService
}

func NewMistakeController(mistakeService *service.MistakeService) *MistakeController {
	return &MistakeController{MistakeService: mistakeService}
}

// ListMistakes godoc
// @Summary 获取错题列表
// @Description 按分组策略返回当前用户的错题；掌握状态与来源试卷筛选在分组前生效
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Param group query string false "分组策略 recent|module|difficulty|topic" default(recent)
// @Param mastery query string false "掌握状态 all|unmastered|mastered" default(all)
// @Param exams query []string false "来源试卷标题，可重复或逗号分隔"
// @Success 200 {object} util.Response{data=service.GroupedMistakes} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/mistakes [get]
func (c *MistakeController) ListMistakes(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	policy, err := service.ParseGroupPolicy(ctx.Query("group"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mastery, err := service.ParseMasteryFilter(ctx.Query("mastery"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mistakes, err := c.MistakeService.LoadMistakes(ctx.Request.Context(), user.UserID())
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	filtered := service.FilterMistakes(mistakes, service.MistakeFilter{
		Mastery:    mastery,
		ExamTitles: splitQueryList(ctx.QueryArray("exams")),
	})
	grouped, err := service.GroupMistakes(filtered, policy)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, grouped)
}

// GetSummary godoc
// @Summary 错题统计
// @Tags 错题本
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.MistakeSummary} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/mistakes/summary [get]
func (c *MistakeController) GetSummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.MistakeService.Summary(ctx.Request.Context(), user.UserID())
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// RecordSubmission godoc
// @Summary 提交作答
// @Description 记录一次作答，答错时自动加入错题本
// @Tags 错题本
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmissionRequest true "作答"
// @Success 201 {object} util.Response{data=service.SubmissionResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "attempt 不属于当前用户"
// @Failure 404 {object} util.Response "attempt 或题目不存在"
// @Router /api/mistakes/submissions [post]
func (c *MistakeController) RecordSubmission(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.MistakeService.RecordSubmission(ctx.Request.Context(), user.UserID(), req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// ReviewMistakeRequest 复习结果
// swagger:model ReviewMistakeRequest
type ReviewMistakeRequest struct {
	Status *model.MistakeStatus `json:"status"`
}

// ReviewMistake godoc
// @Summary 记录复习
// @Description 更新最近复习时间，可选切换掌握状态
// @Tags 错题本
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "题目ID"
// @Param request body ReviewMistakeRequest false "掌握状态"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "错题不存在"
// @Router /api/mistakes/{questionId} [patch]
func (c *MistakeController) ReviewMistake(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ReviewMistakeRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	if err := c.MistakeService.MarkReviewed(ctx.Request.Context(), user.UserID(), ctx.Param("questionId"), req.Status); err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// splitQueryList 同时支持 ?a=x&a=y 与 ?a=x,y
func splitQueryList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
