package controller

import (
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/service"
	"sat_practice_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// RemedialAssignmentController 管理员补救作业向导
type RemedialAssignmentController struct {
	AssignmentService *service.RemedialAssignmentService
}

func NewRemedialAssignmentController(assignmentService *service.RemedialAssignmentService) *RemedialAssignmentController {
	return &RemedialAssignmentController{AssignmentService: assignmentService}
}

// SelectStudentsRequest 第一步
// swagger:model SelectStudentsRequest
type SelectStudentsRequest struct {
	StudentIDs []string `json:"studentIds"`
}

// ListStudents godoc
// @Summary 学生列表
// @Description 所有学生及其错题数量
// @Tags 补救作业
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]repository.StudentMistakeCount} "成功"
// @Failure 403 {object} util.Response "权限不足"
// @Router /api/admin/remedial/students [get]
func (c *RemedialAssignmentController) ListStudents(ctx *gin.Context) {
	students, err := c.AssignmentService.ListStudents(ctx.Request.Context())
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

// StartDraft godoc
// @Summary 开始创建补救作业
// @Description 新建向导草稿，覆盖未完成的草稿
// @Tags 补救作业
// @Produce json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.AssignmentDraft} "成功"
// @Router /api/admin/remedial/draft [post]
func (c *RemedialAssignmentController) StartDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	draft, err := c.AssignmentService.Start(ctx.Request.Context(), user.UserID())
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, draft)
}

// GetDraft godoc
// @Summary 当前草稿
// @Tags 补救作业
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.AssignmentDraft} "成功"
// @Failure 404 {object} util.Response "没有草稿"
// @Router /api/admin/remedial/draft [get]
func (c *RemedialAssignmentController) GetDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	draft, err := c.AssignmentService.Current(ctx.Request.Context(), user.UserID())
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// DiscardDraft godoc
// @Summary 放弃草稿
// @Tags 补救作业
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/remedial/draft [delete]
func (c *RemedialAssignmentController) DiscardDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.AssignmentService.Discard(ctx.Request.Context(), user.UserID()); err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SelectStudents godoc
// @Summary 选择学生
// @Description 加载所选学生的全部错题，进入选择错题步骤
// @Tags 补救作业
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectStudentsRequest true "学生ID列表"
// @Success 200 {object} util.Response{data=model.AssignmentDraft} "成功"
// @Failure 400 {object} util.Response "未选择学生"
// @Failure 409 {object} util.Response "草稿不在该步骤"
// @Router /api/admin/remedial/draft/students [post]
func (c *RemedialAssignmentController) SelectStudents(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SelectStudentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	draft, err := c.AssignmentService.SelectStudents(ctx.Request.Context(), user.UserID(), req.StudentIDs)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// GetPool godoc
// @Summary 错题池
// @Description 按模块、难度、题型、知识点筛选所选学生的错题
// @Tags 补救作业
// @Produce json
// @Security BearerAuth
// @Param modules query []string false "模块"
// @Param difficulties query []string false "难度"
// @Param types query []string false "题型"
// @Param topics query []string false "知识点，Untagged 表示无标签"
// @Success 200 {object} util.Response{data=[]model.AggregatedMistake} "成功"
// @Failure 409 {object} util.Response "草稿不在该步骤"
// @Router /api/admin/remedial/draft/pool [get]
func (c *RemedialAssignmentController) GetPool(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	filter := service.PoolFilter{Topics: splitQueryList(ctx.QueryArray("topics"))}
	for _, m := range splitQueryList(ctx.QueryArray("modules")) {
		filter.Modules = append(filter.Modules, model.Module(m))
	}
	for _, d := range splitQueryList(ctx.QueryArray("difficulties")) {
		filter.Difficulties = append(filter.Difficulties, model.Difficulty(d))
	}
	for _, t := range splitQueryList(ctx.QueryArray("types")) {
		filter.Types = append(filter.Types, model.QuestionType(t))
	}

	pool, err := c.AssignmentService.Pool(ctx.Request.Context(), user.UserID(), filter)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, pool)
}

// Back godoc
// @Summary 返回选择学生
// @Description 丢弃已选学生与错题池
// @Tags 补救作业
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.AssignmentDraft} "成功"
// @Router /api/admin/remedial/draft/back [post]
func (c *RemedialAssignmentController) Back(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	draft, err := c.AssignmentService.Back(ctx.Request.Context(), user.UserID())
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// Finalize godoc
// @Summary 创建补救作业
// @Description 以所选错题（跨学生去重）生成试卷并分配给每名所选学生；任一阶段失败会回滚已写入的数据
// @Tags 补救作业
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.FinalizeRequest true "标题与错题"
// @Success 201 {object} util.Response{data=model.RemedialAssignment} "成功"
// @Failure 400 {object} util.Response "缺少标题或未选择错题"
// @Failure 500 {object} util.Response "某一阶段写入失败"
// @Router /api/admin/remedial/draft/finalize [post]
func (c *RemedialAssignmentController) Finalize(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.FinalizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AssignmentService.Finalize(ctx.Request.Context(), user.UserID(), req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, result)
}
