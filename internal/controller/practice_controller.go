package controller

import (
	"sat_practice_backend/internal/service"
	"sat_practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// PracticeController 错题练习会话
type PracticeController struct {
	PracticeService *service.PracticeSessionService
}

func NewPracticeController(practiceService *service.PracticeSessionService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// CreateSession godoc
// @Summary 练习所选错题
// @Description 为选中的题目创建练习 attempt 与会话描述，默认不打乱顺序
// @Tags 错题练习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PracticeRequest true "题目与设置"
// @Success 201 {object} util.Response{data=service.PracticeSessionDescriptor} "成功"
// @Failure 400 {object} util.Response "未选择题目"
// @Failure 500 {object} util.Response "创建失败"
// @Router /api/practice-sessions [post]
func (c *PracticeController) CreateSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PracticeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.PracticeService.BuildSelected(ctx.Request.Context(), user.UserID(), req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// CreateSessionFromView godoc
// @Summary 练习全部错题
// @Description 按当前分组/筛选视图取全部可见题目创建练习，默认打乱顺序
// @Tags 错题练习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PracticeViewRequest true "视图与设置"
// @Success 201 {object} util.Response{data=service.PracticeSessionDescriptor} "成功"
// @Failure 400 {object} util.Response "当前视图没有题目"
// @Failure 500 {object} util.Response "创建失败"
// @Router /api/practice-sessions/from-view [post]
func (c *PracticeController) CreateSessionFromView(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PracticeViewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.PracticeService.BuildFromView(ctx.Request.Context(), user.UserID(), req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// GetSession godoc
// @Summary 获取练习会话
// @Tags 错题练习
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt ID"
// @Success 200 {object} util.Response{data=service.PracticeSessionDescriptor} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/practice-sessions/{attemptId} [get]
func (c *PracticeController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.PracticeService.GetSession(ctx.Request.Context(), user.UserID(), ctx.Param("attemptId"))
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// ConsumeSession godoc
// @Summary 开始练习
// @Description 答题流程取走会话，同一会话只能取一次
// @Tags 错题练习
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "attempt ID"
// @Success 200 {object} util.Response{data=service.PracticeSessionDescriptor} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已被使用"
// @Router /api/practice-sessions/{attemptId}/consume [post]
func (c *PracticeController) ConsumeSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.PracticeService.ConsumeSession(ctx.Request.Context(), user.UserID(), ctx.Param("attemptId"))
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, session)
}
