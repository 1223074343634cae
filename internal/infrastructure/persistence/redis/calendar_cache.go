package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// CalendarCache 库存日历缓存
// 设计说明：
// 1. 日历查询是读多写少的典型场景（用户反复翻看价格日历）
// 2. Key设计：calendar:{product_id}:{from}:{to}（日期格式2006-01-02）
// 3. TTL较短（默认60秒）：缓存里的余量允许轻微滞后，
//    真正的防超卖由数据库的原子扣减保证，缓存只服务展示
// 4. 预订/取消/改容量后主动失效该产品的所有日历Key
type CalendarCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCalendarCache 创建日历缓存
func NewCalendarCache(client *redis.Client) *CalendarCache {
	return &CalendarCache{
		client: client,
		ttl:    60 * time.Second,
	}
}

// calendarKey 生成缓存Key
func calendarKey(productID uint, from, to time.Time) string {
	return fmt.Sprintf("calendar:%d:%s:%s",
		productID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Get 读取缓存的日历
// 缓存未命中时返回(nil, nil)，调用方回源数据库
func (c *CalendarCache) Get(ctx context.Context, productID uint, from, to time.Time) ([]*inventory.InventoryDay, error) {
	data, err := c.client.Get(ctx, calendarKey(productID, from, to)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 未命中，不是错误
		}
		return nil, apperrors.Wrap(err, "读取日历缓存失败")
	}

	var days []*inventory.InventoryDay
	if err := json.Unmarshal(data, &days); err != nil {
		// 缓存数据损坏：当作未命中处理，回源后覆盖
		return nil, nil
	}

	return days, nil
}

// Set 写入日历缓存
func (c *CalendarCache) Set(ctx context.Context, productID uint, from, to time.Time, days []*inventory.InventoryDay) error {
	data, err := json.Marshal(days)
	if err != nil {
		return apperrors.Wrap(err, "序列化日历失败")
	}

	if err := c.client.Set(ctx, calendarKey(productID, from, to), data, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, "写入日历缓存失败")
	}

	return nil
}

// Invalidate 失效某产品的所有日历缓存
// 学习要点：
// 1. 使用SCAN而非KEYS（KEYS会阻塞Redis，生产环境禁用）
// 2. 失效失败只记录不报错：缓存有TTL兜底，最多脏60秒
func (c *CalendarCache) Invalidate(ctx context.Context, productID uint) error {
	pattern := fmt.Sprintf("calendar:%d:*", productID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return apperrors.Wrap(err, "删除日历缓存失败")
		}
	}

	if err := iter.Err(); err != nil {
		return apperrors.Wrap(err, "扫描日历缓存失败")
	}

	return nil
}
