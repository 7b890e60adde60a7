package handler

import (
	"net/http"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AdminHandler 审核处理器
type AdminHandler struct {
	reportLogic *logic.ReportLogic
}

// NewAdminHandler 创建审核处理器
func NewAdminHandler(reportLogic *logic.ReportLogic) *AdminHandler {
	return &AdminHandler{reportLogic: reportLogic}
}

// ApproveReport 采纳已有方案举报
func (h *AdminHandler) ApproveReport(c *gin.Context) {
	reportId, ok := parseId(c, "id")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的举报ID")
		return
	}

	approval, err := h.reportLogic.ApproveSolutionReport(c.Request.Context(), reportId, middleware.CallerId(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	message := "举报已采纳"
	if approval.AlreadyCompleted {
		message = "项目已通过其他途径完成，举报已驳回"
	}
	SuccessResponse(c, http.StatusOK, message, ReportApprovalResponse{
		ReportId:         approval.ReportId,
		ProjectId:        approval.ProjectId,
		ReportStatus:     string(approval.ReportStatus),
		AlreadyCompleted: approval.AlreadyCompleted,
		Partial:          approval.Partial,
	})
}

// ApproveBuild 通过构建
func (h *AdminHandler) ApproveBuild(c *gin.Context) {
	buildId, ok := parseId(c, "id")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的构建ID")
		return
	}

	approval, err := h.reportLogic.ApproveBuild(c.Request.Context(), buildId, middleware.CallerId(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "构建已通过", BuildApprovalResponse{
		BuildId:   approval.BuildId,
		ProjectId: approval.ProjectId,
		BuilderId: approval.BuilderId,
	})
}
