package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"sicet/backend/internal/dto"
	"sicet/backend/internal/repository"
)

func setupDeviceTest() (DeviceService, *repository.Repository) {
	repo := newTestRepo()
	svc := NewDeviceService(repo, zap.NewNop())
	return svc, repo
}

func TestDeviceService_CreateAndGet(t *testing.T) {
	svc, _ := setupDeviceTest()

	created, err := svc.Create(context.Background(), &dto.CreateDeviceRequest{
		Name:     "Caldaia Nord",
		Location: "Piano -1",
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !created.IsActive {
		t.Error("新建控制点应为启用状态")
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if got.Name != "Caldaia Nord" || got.Location != "Piano -1" {
		t.Errorf("字段不一致: name=%s location=%s", got.Name, got.Location)
	}
}

func TestDeviceService_Update(t *testing.T) {
	svc, _ := setupDeviceTest()

	created, _ := svc.Create(context.Background(), &dto.CreateDeviceRequest{Name: "Pompa Sud"}, "admin-1")

	newLoc := "Piano 2"
	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateDeviceRequest{
		Location: &newLoc,
		IsActive: &inactive,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.Location != "Piano 2" {
		t.Errorf("期望 location=Piano 2，实际=%s", updated.Location)
	}
	if updated.IsActive {
		t.Error("应已停用")
	}
}

func TestDeviceService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupDeviceTest()

	_, err := svc.GetByID(context.Background(), "dev-ghost")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("期望 ErrDeviceNotFound，实际: %v", err)
	}
}

func TestDeviceService_List_OnlyActive(t *testing.T) {
	svc, _ := setupDeviceTest()

	a, _ := svc.Create(context.Background(), &dto.CreateDeviceRequest{Name: "Attivo"}, "admin-1")
	b, _ := svc.Create(context.Background(), &dto.CreateDeviceRequest{Name: "Spento"}, "admin-1")
	_ = a
	inactive := false
	svc.Update(context.Background(), b.ID, &dto.UpdateDeviceRequest{IsActive: &inactive}, "admin-1")

	result, total, err := svc.List(context.Background(), &dto.DeviceListRequest{Page: 1, PageSize: 20, OnlyActive: true})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(result) != 1 {
		t.Fatalf("期望只剩1个启用控制点，实际 total=%d len=%d", total, len(result))
	}
	if result[0].Name != "Attivo" {
		t.Errorf("期望 Attivo，实际=%s", result[0].Name)
	}
}

func TestDeviceService_Delete(t *testing.T) {
	svc, _ := setupDeviceTest()

	created, _ := svc.Create(context.Background(), &dto.CreateDeviceRequest{Name: "Rimosso"}, "admin-1")
	if err := svc.Delete(context.Background(), created.ID, "admin-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}

	_, err := svc.GetByID(context.Background(), created.ID)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("删除后应查不到，实际: %v", err)
	}
}
