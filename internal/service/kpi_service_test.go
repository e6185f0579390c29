package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/model"
	"sicet/backend/internal/repository"
)

func setupKpiTest() (KpiService, *repository.Repository) {
	repo := newTestRepo()
	svc := NewKpiService(repo, zap.NewNop())
	return svc, repo
}

func TestKpiService_Create_Success(t *testing.T) {
	svc, _ := setupKpiTest()

	resp, err := svc.Create(context.Background(), &dto.CreateKpiRequest{
		Name: "Pressione",
		Fields: model.FieldDefs{
			{ID: "f-bar", Name: "Bar", Type: model.FieldDecimal, Required: true, Min: floatPtr(0), Max: floatPtr(10)},
			{ID: "f-state", Name: "Stato", Type: model.FieldSelect, Options: []string{"ok", "ko"}},
		},
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if resp.Name != "Pressione" {
		t.Errorf("期望名称 Pressione，实际=%s", resp.Name)
	}
	if len(resp.Fields) != 2 {
		t.Errorf("期望2个字段，实际=%d", len(resp.Fields))
	}
	if !resp.IsActive {
		t.Error("新建 KPI 应为启用状态")
	}
}

func TestKpiService_Create_DuplicateFieldID(t *testing.T) {
	svc, _ := setupKpiTest()

	_, err := svc.Create(context.Background(), &dto.CreateKpiRequest{
		Name: "Doppione",
		Fields: model.FieldDefs{
			{ID: "f-x", Name: "A", Type: model.FieldText},
			{ID: "f-x", Name: "B", Type: model.FieldText},
		},
	}, "admin-1")
	if !errors.Is(err, ErrKpiInvalidFields) {
		t.Errorf("期望 ErrKpiInvalidFields，实际: %v", err)
	}
}

func TestKpiService_Create_UnknownFieldType(t *testing.T) {
	svc, _ := setupKpiTest()

	_, err := svc.Create(context.Background(), &dto.CreateKpiRequest{
		Name: "Strano",
		Fields: model.FieldDefs{
			{ID: "f-x", Name: "X", Type: "hologram"},
		},
	}, "admin-1")
	if !errors.Is(err, ErrKpiInvalidFields) {
		t.Errorf("期望 ErrKpiInvalidFields，实际: %v", err)
	}
}

func TestKpiService_Create_SelectWithoutOptions(t *testing.T) {
	svc, _ := setupKpiTest()

	_, err := svc.Create(context.Background(), &dto.CreateKpiRequest{
		Name: "Selettore",
		Fields: model.FieldDefs{
			{ID: "f-s", Name: "S", Type: model.FieldSelect},
		},
	}, "admin-1")
	if !errors.Is(err, ErrKpiInvalidFields) {
		t.Errorf("select 缺少可选值应报 ErrKpiInvalidFields，实际: %v", err)
	}
}

func TestKpiService_Create_MinGreaterThanMax(t *testing.T) {
	svc, _ := setupKpiTest()

	_, err := svc.Create(context.Background(), &dto.CreateKpiRequest{
		Name: "Invertito",
		Fields: model.FieldDefs{
			{ID: "f-n", Name: "N", Type: model.FieldNumber, Min: floatPtr(10), Max: floatPtr(5)},
		},
	}, "admin-1")
	if !errors.Is(err, ErrKpiInvalidFields) {
		t.Errorf("min>max 应报 ErrKpiInvalidFields，实际: %v", err)
	}
}

func TestKpiService_Update_FieldsReplaced(t *testing.T) {
	svc, _ := setupKpiTest()

	created, err := svc.Create(context.Background(), &dto.CreateKpiRequest{
		Name:   "Pressione",
		Fields: model.FieldDefs{{ID: "f-bar", Name: "Bar", Type: model.FieldNumber}},
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	newFields := model.FieldDefs{
		{ID: "f-bar", Name: "Bar", Type: model.FieldNumber},
		{ID: "f-note", Name: "Note", Type: model.FieldTextarea},
	}
	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateKpiRequest{
		Fields: &newFields,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if len(updated.Fields) != 2 {
		t.Errorf("期望更新后2个字段，实际=%d", len(updated.Fields))
	}
}

func TestKpiService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupKpiTest()

	_, err := svc.GetByID(context.Background(), "kpi-ghost")
	if !errors.Is(err, ErrKpiNotFound) {
		t.Errorf("期望 ErrKpiNotFound，实际: %v", err)
	}
}
