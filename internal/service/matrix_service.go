package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
)

// ── 矩阵模块业务错误 ──

var ErrMatrixInvalidRange = errors.New("矩阵查询必须提供起止日期")

// MatrixService 矩阵（聚合报表）业务接口
type MatrixService interface {
	// Build 构建日期区间内的矩阵视图：
	// 设备×KPI组合分组统计 + 跨设备按 KPI 组合的二级聚合
	Build(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*dto.MatrixResponse, error)
}

type matrixService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMatrixService 创建 MatrixService 实例
func NewMatrixService(repo *repository.Repository, logger *zap.Logger) MatrixService {
	return &matrixService{repo: repo, logger: logger}
}

// matrixGroup 单个 (设备, KPI组合) 分组的累计状态
type matrixGroup struct {
	deviceID   string
	deviceName string
	groupType  string // "single" | "composite"
	kpiIDs     []string
	label      string

	total      int
	futureLeft int
	pending    int
	inProgress int
	completed  int

	dates           []time.Time
	slotKinds       map[string]bool
	customStartHour *int
	customEndHour   *int
	maxEndDayTime   *time.Time
	categories      map[string]bool
}

func (m *matrixService) Build(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*dto.MatrixResponse, error) {
	if dateFrom.IsZero() || dateTo.IsZero() {
		return nil, ErrMatrixInvalidRange
	}

	lists, err := m.repo.Todolist.ListInRange(ctx, dateFrom, dateTo)
	if err != nil {
		m.logger.Error("矩阵：查询区间内清单失败", zap.Error(err))
		return nil, err
	}

	kpiNames, err := m.loadKpiNames(ctx, lists)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*matrixGroup)

	for i := range lists {
		list := &lists[i]

		kpiIDs := list.KpiIDs()
		if len(kpiIDs) == 0 {
			// 无任务的空清单不进入矩阵
			continue
		}
		sort.Strings(kpiIDs)

		groupType := "single"
		if len(kpiIDs) > 1 {
			groupType = "composite"
		}
		key := list.DeviceID + "|" + groupType + "|" + strings.Join(kpiIDs, "+")

		g, ok := groups[key]
		if !ok {
			deviceName := list.DeviceID
			if list.Device != nil {
				deviceName = list.Device.Name
			}
			g = &matrixGroup{
				deviceID:   list.DeviceID,
				deviceName: deviceName,
				groupType:  groupType,
				kpiIDs:     kpiIDs,
				label:      buildLabel(kpiIDs, kpiNames),
				slotKinds:  make(map[string]bool),
				categories: make(map[string]bool),
			}
			groups[key] = g
		}

		m.accumulate(g, list, now)
	}

	ordered := make([]*matrixGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].label != ordered[j].label {
			return ordered[i].label < ordered[j].label
		}
		return ordered[i].deviceName < ordered[j].deviceName
	})

	resp := &dto.MatrixResponse{
		Groups:     make([]dto.MatrixGroupResponse, 0, len(ordered)),
		Aggregated: nil,
	}
	for _, g := range ordered {
		resp.Groups = append(resp.Groups, finalizeGroup(g, now))
	}
	resp.Aggregated = aggregateAcrossDevices(resp.Groups)

	return resp, nil
}

// accumulate 将一条清单计入分组
func (m *matrixService) accumulate(g *matrixGroup, list *model.Todolist, now time.Time) {
	g.total++

	if list.ScheduledDate.After(now) && list.Status != model.StatusCompleted {
		g.futureLeft++
	}

	switch list.Status {
	case model.StatusCompleted:
		g.completed++
	case model.StatusInProgress:
		g.inProgress++
	default:
		g.pending++
	}

	g.dates = append(g.dates, list.ScheduledDate)

	g.slotKinds[string(list.TimeSlot.Kind)] = true
	if list.TimeSlot.IsCustom() {
		if g.customStartHour == nil || list.TimeSlot.StartHour < *g.customStartHour {
			h := list.TimeSlot.StartHour
			g.customStartHour = &h
		}
		if g.customEndHour == nil || list.TimeSlot.EndHour > *g.customEndHour {
			h := list.TimeSlot.EndHour
			g.customEndHour = &h
		}
	}

	if list.EndDayTime != nil {
		if g.maxEndDayTime == nil || list.EndDayTime.After(*g.maxEndDayTime) {
			t := *list.EndDayTime
			g.maxEndDayTime = &t
		}
	}

	if list.Category != nil && *list.Category != "" {
		g.categories[*list.Category] = true
	}
}

// finalizeGroup 对分组做收尾计算：首末/下次排定日期与执行频率
func finalizeGroup(g *matrixGroup, now time.Time) dto.MatrixGroupResponse {
	sort.Slice(g.dates, func(i, j int) bool { return g.dates[i].Before(g.dates[j]) })

	resp := dto.MatrixGroupResponse{
		DeviceID:             g.deviceID,
		DeviceName:           g.deviceName,
		GroupType:            g.groupType,
		KpiIDs:               g.kpiIDs,
		Label:                g.label,
		TotalScheduledCount:  g.total,
		FutureRemainingCount: g.futureLeft,
		PendingCount:         g.pending,
		InProgressCount:      g.inProgress,
		CompletedCount:       g.completed,
		SlotKinds:            sortedKeys(g.slotKinds),
		CustomStartHour:      g.customStartHour,
		CustomEndHour:        g.customEndHour,
		Categories:           sortedKeys(g.categories),
	}

	if len(g.dates) > 0 {
		resp.FirstScheduledExecution = formatDate(g.dates[0])
		resp.LastScheduledExecution = formatDate(g.dates[len(g.dates)-1])
	}
	for _, d := range g.dates {
		if d.After(now) {
			resp.NextScheduledExecution = formatDate(d)
			break
		}
	}
	resp.FrequencyDays = meanGapDays(g.dates)

	if g.maxEndDayTime != nil {
		s := g.maxEndDayTime.Format(time.RFC3339)
		resp.MaxEndDayTime = &s
	}

	return resp
}

// meanGapDays 相邻排定日期间隔天数的算术平均。
// 少于两个日期没有频率可言，返回 nil。
func meanGapDays(dates []time.Time) *float64 {
	if len(dates) < 2 {
		return nil
	}
	var sum float64
	for i := 1; i < len(dates); i++ {
		sum += dates[i].Sub(dates[i-1]).Hours() / 24
	}
	mean := sum / float64(len(dates)-1)
	return &mean
}

// aggregateAcrossDevices 按 KPI 组合合并跨设备分组。
// 频率采用逐设备两两平均的沿用算法：每个新设备的频率与累计值
// 各占一半，结果依合并顺序而变。数值含义与历史报表保持一致，
// 不要改成真正的加权平均。
func aggregateAcrossDevices(groups []dto.MatrixGroupResponse) []dto.MatrixAggregatedResponse {
	byKpiSet := make(map[string]*dto.MatrixAggregatedResponse)
	var order []string

	for i := range groups {
		g := &groups[i]
		key := strings.Join(g.KpiIDs, "+")

		agg, ok := byKpiSet[key]
		if !ok {
			agg = &dto.MatrixAggregatedResponse{
				KpiIDs:     g.KpiIDs,
				Label:      g.Label,
				SlotKinds:  nil,
				Categories: nil,
			}
			byKpiSet[key] = agg
			order = append(order, key)
		}

		agg.DeviceCount++
		agg.TotalScheduledCount += g.TotalScheduledCount
		agg.FutureRemainingCount += g.FutureRemainingCount
		agg.PendingCount += g.PendingCount
		agg.InProgressCount += g.InProgressCount
		agg.CompletedCount += g.CompletedCount

		agg.FirstScheduledExecution = minDate(agg.FirstScheduledExecution, g.FirstScheduledExecution)
		agg.LastScheduledExecution = maxDate(agg.LastScheduledExecution, g.LastScheduledExecution)
		agg.NextScheduledExecution = minDate(agg.NextScheduledExecution, g.NextScheduledExecution)

		if g.FrequencyDays != nil {
			if agg.FrequencyDays == nil {
				f := *g.FrequencyDays
				agg.FrequencyDays = &f
			} else {
				f := (*agg.FrequencyDays + *g.FrequencyDays) / 2
				agg.FrequencyDays = &f
			}
		}

		agg.SlotKinds = unionSorted(agg.SlotKinds, g.SlotKinds)
		agg.Categories = unionSorted(agg.Categories, g.Categories)

		if g.CustomStartHour != nil {
			if agg.CustomStartHour == nil || *g.CustomStartHour < *agg.CustomStartHour {
				h := *g.CustomStartHour
				agg.CustomStartHour = &h
			}
		}
		if g.CustomEndHour != nil {
			if agg.CustomEndHour == nil || *g.CustomEndHour > *agg.CustomEndHour {
				h := *g.CustomEndHour
				agg.CustomEndHour = &h
			}
		}
	}

	sort.Strings(order)
	result := make([]dto.MatrixAggregatedResponse, 0, len(order))
	for _, key := range order {
		result = append(result, *byKpiSet[key])
	}
	return result
}

// ── 内部辅助方法 ──

// loadKpiNames 批量加载清单引用到的 KPI 名称
func (m *matrixService) loadKpiNames(ctx context.Context, lists []model.Todolist) (map[string]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for i := range lists {
		for _, id := range lists[i].KpiIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	kpis, err := m.repo.Kpi.ListByIDs(ctx, ids)
	if err != nil {
		m.logger.Error("矩阵：批量查询 KPI 失败", zap.Error(err))
		return nil, err
	}

	names := make(map[string]string, len(kpis))
	for i := range kpis {
		names[kpis[i].KpiID] = kpis[i].Name
	}
	return names, nil
}

// buildLabel 组合标签：KPI 名称按 " + " 拼接，查不到名称时退回原始 ID
func buildLabel(kpiIDs []string, kpiNames map[string]string) string {
	parts := make([]string, 0, len(kpiIDs))
	for _, id := range kpiIDs {
		if name, ok := kpiNames[id]; ok && name != "" {
			parts = append(parts, name)
		} else {
			parts = append(parts, id)
		}
	}
	return strings.Join(parts, " + ")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionSorted(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	return sortedKeys(set)
}

func formatDate(t time.Time) *string {
	s := t.Format("2006-01-02")
	return &s
}

func minDate(cur, candidate *string) *string {
	if candidate == nil {
		return cur
	}
	if cur == nil || *candidate < *cur {
		s := *candidate
		return &s
	}
	return cur
}

func maxDate(cur, candidate *string) *string {
	if candidate == nil {
		return cur
	}
	if cur == nil || *candidate > *cur {
		s := *candidate
		return &s
	}
	return cur
}
