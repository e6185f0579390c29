package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sicet/backend/internal/dto"
	"sicet/backend/pkg/csvutil"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// ExportService 导出业务接口
//
// 设计说明：
//   - 矩阵视图导出为 Excel (.xlsx) 或 CSV 两种格式
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：Sheet "Matrice" 为设备分组明细，Sheet "Aggregato" 为跨设备聚合
type ExportService interface {
	// ExportMatrixXLSX 导出矩阵视图为 Excel
	ExportMatrixXLSX(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*bytes.Buffer, string, error)
	// ExportMatrixCSV 导出矩阵视图（仅设备分组明细）为 CSV
	ExportMatrixCSV(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	matrix MatrixService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(matrix MatrixService, logger *zap.Logger) ExportService {
	return &exportService{matrix: matrix, logger: logger}
}

// 明细表头（意大利语，与前端矩阵视图列一致）
var matrixHeaders = []string{
	"Punto di controllo", "Controlli", "Tipo",
	"Totale", "Future", "Da fare", "In corso", "Completate",
	"Prima esecuzione", "Ultima esecuzione", "Prossima esecuzione",
	"Frequenza (giorni)", "Fasce", "Ora inizio", "Ora fine", "Categorie",
}

// ═══════════════════════════════════════════════════════════
// ExportMatrixXLSX — 矩阵视图导出为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportMatrixXLSX(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*bytes.Buffer, string, error) {
	matrix, err := s.matrix.Build(ctx, dateFrom, dateTo, now)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Sheet 1: 设备分组明细
	sheetName := "Matrice"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 32)
	f.SetColWidth(sheetName, "C", colName(len(matrixHeaders)-1), 16)

	for i, h := range matrixHeaders {
		c := cell(colName(i), 1)
		f.SetCellValue(sheetName, c, h)
		f.SetCellStyle(sheetName, c, c, headerStyle)
	}

	row := 2
	for i := range matrix.Groups {
		g := &matrix.Groups[i]
		values := groupRow(g)
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	// Sheet 2: 跨设备聚合
	aggSheet := "Aggregato"
	f.NewSheet(aggSheet)
	f.SetColWidth(aggSheet, "A", "A", 32)
	f.SetColWidth(aggSheet, "B", colName(len(matrixHeaders)-2), 16)

	aggHeaders := append([]string{"Controlli", "Punti di controllo"}, matrixHeaders[3:]...)
	for i, h := range aggHeaders {
		c := cell(colName(i), 1)
		f.SetCellValue(aggSheet, c, h)
		f.SetCellStyle(aggSheet, c, c, headerStyle)
	}

	row = 2
	for i := range matrix.Aggregated {
		a := &matrix.Aggregated[i]
		values := aggregatedRow(a)
		for col, v := range values {
			f.SetCellValue(aggSheet, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("matrice_%s_%s.xlsx",
		dateFrom.Format("2006-01-02"), dateTo.Format("2006-01-02"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportMatrixCSV — 矩阵视图导出为 CSV
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportMatrixCSV(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*bytes.Buffer, string, error) {
	matrix, err := s.matrix.Build(ctx, dateFrom, dateTo, now)
	if err != nil {
		return nil, "", err
	}

	records := make([][]string, 0, len(matrix.Groups)+1)
	records = append(records, matrixHeaders)

	for i := range matrix.Groups {
		g := &matrix.Groups[i]
		row := groupRow(g)
		strRow := make([]string, len(row))
		for j, v := range row {
			strRow[j] = fmt.Sprintf("%v", v)
		}
		records = append(records, strRow)
	}

	buf, err := csvutil.WriteRecords(records)
	if err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("matrice_%s_%s.csv",
		dateFrom.Format("2006-01-02"), dateTo.Format("2006-01-02"))
	return buf, filename, nil
}

// ── 行构建辅助 ──

func groupRow(g *dto.MatrixGroupResponse) []interface{} {
	return []interface{}{
		g.DeviceName,
		g.Label,
		g.GroupType,
		g.TotalScheduledCount,
		g.FutureRemainingCount,
		g.PendingCount,
		g.InProgressCount,
		g.CompletedCount,
		strOrDash(g.FirstScheduledExecution),
		strOrDash(g.LastScheduledExecution),
		strOrDash(g.NextScheduledExecution),
		freqOrDash(g.FrequencyDays),
		strings.Join(g.SlotKinds, ", "),
		hourOrDash(g.CustomStartHour),
		hourOrDash(g.CustomEndHour),
		strings.Join(g.Categories, ", "),
	}
}

func aggregatedRow(a *dto.MatrixAggregatedResponse) []interface{} {
	return []interface{}{
		a.Label,
		a.DeviceCount,
		a.TotalScheduledCount,
		a.FutureRemainingCount,
		a.PendingCount,
		a.InProgressCount,
		a.CompletedCount,
		strOrDash(a.FirstScheduledExecution),
		strOrDash(a.LastScheduledExecution),
		strOrDash(a.NextScheduledExecution),
		freqOrDash(a.FrequencyDays),
		strings.Join(a.SlotKinds, ", "),
		hourOrDash(a.CustomStartHour),
		hourOrDash(a.CustomEndHour),
		strings.Join(a.Categories, ", "),
	}
}

func strOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func freqOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', 1, 64)
}

func hourOrDash(h *int) string {
	if h == nil {
		return "-"
	}
	return fmt.Sprintf("%02d:00", *h)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
