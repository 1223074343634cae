package inventory

import (
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// StayDays 推导一笔预订占用的日历日集合
//
// 教学重点:这是整个库存模块最容易写错的地方
//
// 日期语义:
//   - 客房(Room): 半开区间[checkIn, checkOut),即"住几晚占几天"
//     例:5月1日入住,5月4日离店 → 占用1日、2日、3日,不占用4日(离店日)
//   - 活动(Event): 只占用checkIn当天,checkOut被忽略
//
// 设计要点:
// 可用性预检、扣减、回补三处都要遍历同一个日期集合,
// 如果各算各的,哪怕差一天,取消时就会把库存补错位置。
// 所以日期推导必须收敛到这一个纯函数,全部调用方共用。
func StayDays(productType product.Type, checkIn time.Time, checkOut *time.Time) ([]time.Time, error) {
	if !productType.IsValid() {
		return nil, ErrInvalidProductType
	}

	in := NormalizeDate(checkIn)

	// 活动:单日语义
	if productType == product.TypeEvent {
		return []time.Time{in}, nil
	}

	// 客房:必须提供离店日,且晚于入住日
	if checkOut == nil {
		return nil, ErrInvalidDateRange
	}
	out := NormalizeDate(*checkOut)
	if !out.After(in) {
		return nil, ErrInvalidDateRange
	}

	// 半开区间[in, out):离店日不占库存
	days := make([]time.Time, 0, int(out.Sub(in).Hours()/24))
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}
