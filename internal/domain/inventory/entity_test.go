package inventory

import (
	"testing"
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// TestInventoryDay_CanSell 测试单日可售判断
func TestInventoryDay_CanSell(t *testing.T) {
	day := NewInventoryDay(1, product.TypeRoom, date(2026, 7, 1), 10, 29900, "CNY", true)
	day.BookedQuantity = 7

	t.Run("剩余足够可售", func(t *testing.T) {
		if !day.CanSell(3) {
			t.Error("剩余3间卖3间应该成功")
		}
	})

	t.Run("剩余不足不可售", func(t *testing.T) {
		if day.CanSell(4) {
			t.Error("剩余3间卖4间应该失败")
		}
	})

	t.Run("下架开关优先于数量", func(t *testing.T) {
		offline := NewInventoryDay(1, product.TypeRoom, date(2026, 7, 1), 10, 29900, "CNY", false)
		if offline.CanSell(1) {
			t.Error("IsAvailable=false时即使有库存也不可售")
		}
	})
}

// TestInventoryDay_AvailableQuantity 测试派生的剩余数量
func TestInventoryDay_AvailableQuantity(t *testing.T) {
	day := NewInventoryDay(1, product.TypeEvent, date(2026, 7, 1), 100, 9900, "CNY", true)
	day.BookedQuantity = 42

	if got := day.AvailableQuantity(); got != 58 {
		t.Errorf("期望剩余58，实际%d", got)
	}
}

// TestInventoryDay_Validate 测试实体校验
func TestInventoryDay_Validate(t *testing.T) {
	valid := func() *InventoryDay {
		return NewInventoryDay(1, product.TypeRoom, date(2026, 7, 1), 10, 29900, "CNY", true)
	}

	t.Run("合法实体", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("合法实体不应报错: %v", err)
		}
	})

	t.Run("缺产品ID", func(t *testing.T) {
		d := valid()
		d.ProductID = 0
		if err := d.Validate(); err != ErrInvalidProductID {
			t.Errorf("期望ErrInvalidProductID，实际: %v", err)
		}
	})

	t.Run("非法产品类型", func(t *testing.T) {
		d := valid()
		d.ProductType = product.Type(99)
		if err := d.Validate(); err != ErrInvalidProductType {
			t.Errorf("期望ErrInvalidProductType，实际: %v", err)
		}
	})

	t.Run("容量为负", func(t *testing.T) {
		d := valid()
		d.TotalQuantity = -1
		if err := d.Validate(); err != ErrInvalidCapacity {
			t.Errorf("期望ErrInvalidCapacity，实际: %v", err)
		}
	})

	t.Run("已售超过总量违反不变量", func(t *testing.T) {
		d := valid()
		d.BookedQuantity = 11
		if err := d.Validate(); err != ErrQuantityInvariant {
			t.Errorf("期望ErrQuantityInvariant，实际: %v", err)
		}
	})

	t.Run("价格为负", func(t *testing.T) {
		d := valid()
		d.Price = -100
		if err := d.Validate(); err != ErrInvalidPrice {
			t.Errorf("期望ErrInvalidPrice，实际: %v", err)
		}
	})

	t.Run("容量为0是合法的售罄状态", func(t *testing.T) {
		d := NewInventoryDay(1, product.TypeRoom, date(2026, 7, 1), 0, 29900, "CNY", true)
		if err := d.Validate(); err != nil {
			t.Errorf("容量0是合法配置: %v", err)
		}
		if d.CanSell(1) {
			t.Error("容量0不可售出")
		}
	})
}

// TestNewInventoryDay_NormalizesDate 测试工厂方法对日期的归一化
func TestNewInventoryDay_NormalizesDate(t *testing.T) {
	d := NewInventoryDay(1, product.TypeRoom, time.Date(2026, 7, 1, 15, 30, 0, 0, time.UTC), 10, 29900, "CNY", true)
	if !d.Date.Equal(date(2026, 7, 1)) {
		t.Errorf("工厂方法应归一化日期，实际: %v", d.Date)
	}
}
