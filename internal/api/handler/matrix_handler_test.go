package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"sicet/backend/internal/dto"
)

// stubMatrixService 记录收到的区间并返回空矩阵
type stubMatrixService struct {
	gotFrom time.Time
	gotTo   time.Time
	called  bool
}

func (s *stubMatrixService) Build(ctx context.Context, dateFrom, dateTo time.Time, now time.Time) (*dto.MatrixResponse, error) {
	s.called = true
	s.gotFrom = dateFrom
	s.gotTo = dateTo
	return &dto.MatrixResponse{}, nil
}

func newMatrixTestRouter(svc *stubMatrixService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewMatrixHandler(svc, nil)
	r := gin.New()
	r.GET("/matrix", h.Get)
	return r
}

func TestMatrixGet_ValidRange(t *testing.T) {
	svc := &stubMatrixService{}
	r := newMatrixTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/matrix?date_from=2024-01-01&date_to=2024-01-31", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d，body=%s", w.Code, w.Body.String())
	}
	if !svc.called {
		t.Fatal("期望调用矩阵服务，实际未调用")
	}
	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	if !svc.gotFrom.Equal(wantFrom) {
		t.Errorf("期望 date_from=%v，实际=%v", wantFrom, svc.gotFrom)
	}
}

func TestMatrixGet_InvalidDateRejected(t *testing.T) {
	svc := &stubMatrixService{}
	r := newMatrixTestRouter(svc)

	cases := []string{
		"/matrix",                                       // 缺少参数
		"/matrix?date_from=2024-13-99&date_to=2024-01-31", // 非法日期
		"/matrix?date_from=01/01/2024&date_to=2024-01-31", // 格式错误
	}
	for _, url := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: 期望 400，实际=%d", url, w.Code)
		}
	}
	if svc.called {
		t.Error("参数非法时不应调用矩阵服务")
	}
}
