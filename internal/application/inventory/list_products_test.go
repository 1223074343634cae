package inventory

import (
	"context"
	"testing"
)

// TestListProductsUseCase 测试运营后台的产品列表查询
func TestListProductsUseCase(t *testing.T) {
	ctx := context.Background()
	uc := NewListProductsUseCase(testProducts())

	t.Run("列出酒店下的全部产品", func(t *testing.T) {
		resp, err := uc.Execute(ctx, 1)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if resp.HotelID != 1 {
			t.Errorf("酒店ID期望1，实际%d", resp.HotelID)
		}
		if len(resp.Products) != 2 {
			t.Fatalf("产品数期望2，实际%d", len(resp.Products))
		}
		if resp.Products[0].Name != "豪华大床房" || resp.Products[0].Type != "客房" {
			t.Errorf("首个产品错误: %+v", resp.Products[0])
		}
		if resp.Products[1].Name != "温泉夜场" || resp.Products[1].Type != "活动" {
			t.Errorf("第二个产品错误: %+v", resp.Products[1])
		}
		t.Log("✅ 产品列表带类型中文名返回")
	})

	t.Run("酒店下没有产品返回空列表", func(t *testing.T) {
		resp, err := uc.Execute(ctx, 999)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if len(resp.Products) != 0 {
			t.Errorf("不存在的酒店应返回空列表，实际%d个", len(resp.Products))
		}
	})
}
