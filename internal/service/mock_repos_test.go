package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
	pkgerrors "sicet/backend/pkg/errors"
	"sicet/backend/pkg/mailer"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return paginate(result, offset, limit), int64(len(m.users)), nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock DeviceRepository ──

type mockDeviceRepo struct {
	devices map[string]*model.Device
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*model.Device)}
}

func (m *mockDeviceRepo) Create(_ context.Context, device *model.Device) error {
	if device.DeviceID == "" {
		device.DeviceID = "dev-" + device.Name
	}
	m.devices[device.DeviceID] = device
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id string) (*model.Device, error) {
	if d, ok := m.devices[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRepo) List(_ context.Context, offset, limit int, onlyActive bool) ([]model.Device, int64, error) {
	var result []model.Device
	for _, d := range m.devices {
		if onlyActive && !d.IsActive {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	total := int64(len(result))
	return paginate(result, offset, limit), total, nil
}

func (m *mockDeviceRepo) ListByIDs(_ context.Context, ids []string) ([]model.Device, error) {
	var result []model.Device
	for _, id := range ids {
		if d, ok := m.devices[id]; ok {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDeviceRepo) Update(_ context.Context, device *model.Device) error {
	m.devices[device.DeviceID] = device
	return nil
}

func (m *mockDeviceRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.devices, id)
	return nil
}

// ── Mock KpiRepository ──

type mockKpiRepo struct {
	kpis map[string]*model.Kpi
}

func newMockKpiRepo() *mockKpiRepo {
	return &mockKpiRepo{kpis: make(map[string]*model.Kpi)}
}

func (m *mockKpiRepo) Create(_ context.Context, kpi *model.Kpi) error {
	if kpi.KpiID == "" {
		kpi.KpiID = "kpi-" + kpi.Name
	}
	m.kpis[kpi.KpiID] = kpi
	return nil
}

func (m *mockKpiRepo) GetByID(_ context.Context, id string) (*model.Kpi, error) {
	if k, ok := m.kpis[id]; ok {
		return k, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockKpiRepo) List(_ context.Context, offset, limit int, onlyActive bool) ([]model.Kpi, int64, error) {
	var result []model.Kpi
	for _, k := range m.kpis {
		if onlyActive && !k.IsActive {
			continue
		}
		result = append(result, *k)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	total := int64(len(result))
	return paginate(result, offset, limit), total, nil
}

func (m *mockKpiRepo) ListByIDs(_ context.Context, ids []string) ([]model.Kpi, error) {
	var result []model.Kpi
	for _, id := range ids {
		if k, ok := m.kpis[id]; ok {
			result = append(result, *k)
		}
	}
	return result, nil
}

func (m *mockKpiRepo) Update(_ context.Context, kpi *model.Kpi) error {
	m.kpis[kpi.KpiID] = kpi
	return nil
}

func (m *mockKpiRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.kpis, id)
	return nil
}

// ── Mock TodolistRepository ──

type mockTodolistRepo struct {
	lists   map[string]*model.Todolist
	nextSeq int
}

func newMockTodolistRepo() *mockTodolistRepo {
	return &mockTodolistRepo{lists: make(map[string]*model.Todolist)}
}

func (m *mockTodolistRepo) CreateBatch(_ context.Context, lists []model.Todolist) error {
	for i := range lists {
		m.nextSeq++
		if lists[i].TodolistID == "" {
			lists[i].TodolistID = fmt.Sprintf("tl-%d", m.nextSeq)
		}
		for j := range lists[i].Tasks {
			if lists[i].Tasks[j].TaskID == "" {
				lists[i].Tasks[j].TaskID = fmt.Sprintf("task-%d-%d", m.nextSeq, j)
			}
			lists[i].Tasks[j].TodolistID = lists[i].TodolistID
		}
		cp := lists[i]
		m.lists[cp.TodolistID] = &cp
	}
	return nil
}

func (m *mockTodolistRepo) GetByID(_ context.Context, id string) (*model.Todolist, error) {
	if l, ok := m.lists[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTodolistRepo) List(_ context.Context, filter repository.TodolistFilter) ([]model.Todolist, int64, error) {
	var result []model.Todolist
	for _, l := range m.lists {
		if filter.DeviceID != "" && l.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && l.ScheduledDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && l.ScheduledDate.After(*filter.DateTo) {
			continue
		}
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledDate.Before(result[j].ScheduledDate) })
	total := int64(len(result))
	return paginate(result, filter.Offset, filter.Limit), total, nil
}

func (m *mockTodolistRepo) ListInRange(_ context.Context, dateFrom, dateTo time.Time) ([]model.Todolist, error) {
	var result []model.Todolist
	for _, l := range m.lists {
		if l.ScheduledDate.Before(dateFrom) || l.ScheduledDate.After(dateTo) {
			continue
		}
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledDate.Before(result[j].ScheduledDate) })
	return result, nil
}

func (m *mockTodolistRepo) ListUncompleted(_ context.Context) ([]model.Todolist, error) {
	var result []model.Todolist
	for _, l := range m.lists {
		if l.Status == model.StatusCompleted {
			continue
		}
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TodolistID < result[j].TodolistID })
	return result, nil
}

func (m *mockTodolistRepo) Update(_ context.Context, list *model.Todolist) error {
	stored, ok := m.lists[list.TodolistID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// 与生产实现一致的乐观锁语义
	if stored.Version != list.Version {
		return pkgerrors.ErrOptimisticLock
	}
	list.Version++
	m.lists[list.TodolistID] = list
	return nil
}

func (m *mockTodolistRepo) GetTask(_ context.Context, taskID string) (*model.Task, error) {
	for _, l := range m.lists {
		for i := range l.Tasks {
			if l.Tasks[i].TaskID == taskID {
				return &l.Tasks[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTodolistRepo) UpdateTask(_ context.Context, task *model.Task) error {
	for _, l := range m.lists {
		for i := range l.Tasks {
			if l.Tasks[i].TaskID == task.TaskID {
				l.Tasks[i] = *task
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock AlertRepository ──

type mockAlertRepo struct {
	alerts map[string]*model.Alert
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{alerts: make(map[string]*model.Alert)}
}

func (m *mockAlertRepo) Create(_ context.Context, alert *model.Alert) error {
	if alert.AlertID == "" {
		alert.AlertID = "alert-" + alert.Name
	}
	m.alerts[alert.AlertID] = alert
	return nil
}

func (m *mockAlertRepo) GetByID(_ context.Context, id string) (*model.Alert, error) {
	if a, ok := m.alerts[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAlertRepo) List(_ context.Context, offset, limit int) ([]model.Alert, int64, error) {
	var result []model.Alert
	for _, a := range m.alerts {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return paginate(result, offset, limit), int64(len(m.alerts)), nil
}

func (m *mockAlertRepo) ListActiveByDevice(_ context.Context, deviceID string) ([]model.Alert, error) {
	var result []model.Alert
	for _, a := range m.alerts {
		if a.IsActive && a.DeviceID != nil && *a.DeviceID == deviceID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AlertID < result[j].AlertID })
	return result, nil
}

func (m *mockAlertRepo) ListActiveByKpi(_ context.Context, kpiID string) ([]model.Alert, error) {
	var result []model.Alert
	for _, a := range m.alerts {
		if a.IsActive && a.KpiID != nil && *a.KpiID == kpiID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AlertID < result[j].AlertID })
	return result, nil
}

func (m *mockAlertRepo) Update(_ context.Context, alert *model.Alert) error {
	m.alerts[alert.AlertID] = alert
	return nil
}

func (m *mockAlertRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.alerts, id)
	return nil
}

// ── Mock AlertLogRepository ──

type mockAlertLogRepo struct {
	todolistLogs []model.TodolistAlertLog
	kpiLogs      []model.KpiAlertLog
}

func newMockAlertLogRepo() *mockAlertLogRepo {
	return &mockAlertLogRepo{}
}

func (m *mockAlertLogRepo) CreateTodolistLog(_ context.Context, log *model.TodolistAlertLog) error {
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("tlog-%d", len(m.todolistLogs)+1)
	}
	m.todolistLogs = append(m.todolistLogs, *log)
	return nil
}

func (m *mockAlertLogRepo) CreateKpiLog(_ context.Context, log *model.KpiAlertLog) error {
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("klog-%d", len(m.kpiLogs)+1)
	}
	m.kpiLogs = append(m.kpiLogs, *log)
	return nil
}

func (m *mockAlertLogRepo) HasTodolistLog(_ context.Context, todolistID, alertID string) (bool, error) {
	for _, l := range m.todolistLogs {
		if l.TodolistID == todolistID && l.AlertID == alertID && l.ErrorMessage == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAlertLogRepo) ListTodolistLogs(_ context.Context, todolistID string) ([]model.TodolistAlertLog, error) {
	var result []model.TodolistAlertLog
	for _, l := range m.todolistLogs {
		if l.TodolistID == todolistID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockAlertLogRepo) ListKpiLogs(_ context.Context, kpiID string, offset, limit int) ([]model.KpiAlertLog, int64, error) {
	var result []model.KpiAlertLog
	for _, l := range m.kpiLogs {
		if l.KpiID == kpiID {
			result = append(result, l)
		}
	}
	total := int64(len(result))
	return paginate(result, offset, limit), total, nil
}

// ── Mock Mailer ──

// mockMailer 记录发送请求；failWith 非空时所有发送都报错
type mockMailer struct {
	overdueSent []mailer.OverdueNotice
	alertSent   []mailer.AlertNotice
	failWith    string
	failOnNth   int // >0 表示仅第 N 次发送失败（逾期+告警合计）
	callCount   int
}

func newMockMailer() *mockMailer {
	return &mockMailer{}
}

func (m *mockMailer) SendOverdueNotice(n *mailer.OverdueNotice) error {
	m.callCount++
	if err := m.maybeFail(); err != nil {
		return err
	}
	m.overdueSent = append(m.overdueSent, *n)
	return nil
}

func (m *mockMailer) SendAlertNotice(n *mailer.AlertNotice) error {
	m.callCount++
	if err := m.maybeFail(); err != nil {
		return err
	}
	m.alertSent = append(m.alertSent, *n)
	return nil
}

func (m *mockMailer) maybeFail() error {
	if m.failWith != "" && (m.failOnNth == 0 || m.failOnNth == m.callCount) {
		return errors.New(m.failWith)
	}
	return nil
}

// ── 测试装配辅助 ──

// newTestRepo 返回全 Mock 的仓库聚合
func newTestRepo() *repository.Repository {
	return &repository.Repository{
		User:     newMockUserRepo(),
		Device:   newMockDeviceRepo(),
		Kpi:      newMockKpiRepo(),
		Todolist: newMockTodolistRepo(),
		Alert:    newMockAlertRepo(),
		AlertLog: newMockAlertLogRepo(),
	}
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
