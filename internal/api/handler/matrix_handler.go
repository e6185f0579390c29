package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/service"
	"sicet/backend/pkg/response"
)

// MatrixHandler 矩阵（聚合报表）与导出模块 HTTP 处理器
type MatrixHandler struct {
	matrixSvc service.MatrixService
	exportSvc service.ExportService
}

// NewMatrixHandler 创建 MatrixHandler
func NewMatrixHandler(matrixSvc service.MatrixService, exportSvc service.ExportService) *MatrixHandler {
	return &MatrixHandler{matrixSvc: matrixSvc, exportSvc: exportSvc}
}

// parseRange 解析必填的日期区间参数
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	var req dto.MatrixRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "date_from 与 date_to 为必填，格式 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}

	dateFrom, err := time.ParseInLocation("2006-01-02", req.DateFrom, time.Local)
	if err != nil {
		response.BadRequest(c, 10001, "date_from 格式无效，应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	dateTo, err := time.ParseInLocation("2006-01-02", req.DateTo, time.Local)
	if err != nil {
		response.BadRequest(c, 10001, "date_to 格式无效，应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return dateFrom, dateTo, true
}

// Get 矩阵视图
// GET /api/v1/matrix
func (h *MatrixHandler) Get(c *gin.Context) {
	dateFrom, dateTo, ok := parseRange(c)
	if !ok {
		return
	}

	result, err := h.matrixSvc.Build(c.Request.Context(), dateFrom, dateTo, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrMatrixInvalidRange) {
			response.BadRequest(c, 17001, "矩阵查询必须提供起止日期")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ExportXLSX 矩阵导出为 Excel
// GET /api/v1/matrix/export/xlsx
func (h *MatrixHandler) ExportXLSX(c *gin.Context) {
	dateFrom, dateTo, ok := parseRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMatrixXLSX(c.Request.Context(), dateFrom, dateTo, time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	writeDownload(c, buf.Bytes(), filename,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// ExportCSV 矩阵导出为 CSV
// GET /api/v1/matrix/export/csv
func (h *MatrixHandler) ExportCSV(c *gin.Context) {
	dateFrom, dateTo, ok := parseRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportMatrixCSV(c.Request.Context(), dateFrom, dateTo, time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	writeDownload(c, buf.Bytes(), filename, "text/csv; charset=utf-8")
}

// writeDownload 设置附件下载响应头并写出内容
func writeDownload(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
	c.Data(http.StatusOK, contentType, data)
}
