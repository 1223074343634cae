package reservation

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateReference 生成预订号
// 教学要点:预订号设计原则
// 1. 全局唯一(避免冲突,数据库唯一索引兜底)
// 2. 时间有序(便于分库分表)
// 3. 不可预测(防止恶意遍历他人预订)
//
// 格式:RSV + 时间戳(秒) + 6位随机数
// 示例:RSV1717200000123456
//
// 生产环境推荐:
// - 雪花算法(Snowflake):分布式唯一ID
// - UUID:简单但无序
// - 数据库自增ID:单点瓶颈
func GenerateReference() string {
	timestamp := time.Now().Unix()
	random := rand.Intn(1000000) // 6位随机数
	return fmt.Sprintf("RSV%d%06d", timestamp, random)
}
