package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/hotelbooking/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	// 1. 构建DSN连接字符串
	dsn := cfg.Database.DSN()

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	// 3. 连接数据库
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	// 学习要点：合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 最大打开连接数（建议：CPU核数 * 2 + 磁盘数量）
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	// 最大空闲连接数（建议：MaxOpenConns的1/4到1/2）
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// 连接最大存活时间（防止数据库主动断开连接）
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	// 6. 自动迁移表结构（开发环境）
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 学习要点：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
func autoMigrate(db *gorm.DB) error {
	// 定义需要迁移的模型
	// 注意：这里需要使用GORM的模型定义（带tag），不是domain层的实体
	return db.AutoMigrate(
		&UserModel{},
		&ProductModel{},
		&InventoryDayModel{},
		&ReservationModel{},
	)
}

// UserModel GORM住客账号模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
// 3. Repository负责两者之间的转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	Phone     string         `gorm:"size:20;comment:联系电话"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ProductModel GORM产品模型
// 设计说明:
// 1. 产品内容(介绍、图片、优惠)由CMS管理,这里只存预订需要的最小字段
// 2. Type决定日期语义:1客房(按夜),2活动(单日)
type ProductModel struct {
	ID        uint      `gorm:"primaryKey"`
	HotelID   uint      `gorm:"index;not null;comment:所属酒店ID"`
	Name      string    `gorm:"size:200;not null;comment:产品名称"`
	Type      int       `gorm:"type:tinyint;not null;comment:产品类型(1客房2活动)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// InventoryDayModel GORM单日库存模型
// 设计说明:
// 1. (ProductID, Date)复合唯一索引:每个产品每天只有一行
// 2. BookedQuantity只通过原子条件UPDATE变更,不走Save全量更新
//    (全量更新会把并发扣减互相覆盖,这是超卖的典型根源)
// 3. Date使用DATE列(不含时间),与领域层的日期归一化对齐
// 4. 没有软删除:库存行从不删除,"下架某天"用IsAvailable开关表达
type InventoryDayModel struct {
	ID             uint      `gorm:"primaryKey"`
	ProductID      uint      `gorm:"uniqueIndex:idx_product_date;not null;comment:产品ID"`
	Date           time.Time `gorm:"uniqueIndex:idx_product_date;type:date;not null;comment:日历日"`
	ProductType    int       `gorm:"type:tinyint;not null;comment:产品类型(1客房2活动)"`
	TotalQuantity  int       `gorm:"not null;default:0;comment:总可售数量"`
	BookedQuantity int       `gorm:"not null;default:0;comment:已售数量"`
	Price          int64     `gorm:"not null;default:0;comment:当日价格(分)"`
	Currency       string    `gorm:"size:3;not null;default:CNY;comment:币种"`
	IsAvailable    bool      `gorm:"not null;default:true;comment:可售开关"`
	CreatedAt      time.Time `gorm:"comment:创建时间"`
	UpdatedAt      time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (InventoryDayModel) TableName() string {
	return "inventory_days"
}

// ReservationModel GORM预订单模型
// 教学要点:
// 1. Reference有唯一索引(业务主键,对外暴露的预订号)
// 2. Status使用int存储(节省空间,便于索引)
// 3. 没有软删除:预订单是审计凭证,永不删除,取消只翻转状态
type ReservationModel struct {
	ID          uint       `gorm:"primaryKey"`
	Reference   string     `gorm:"uniqueIndex;size:32;not null;comment:预订号"`
	ProductID   uint       `gorm:"index;not null;comment:产品ID"`
	ProductType int        `gorm:"type:tinyint;not null;comment:产品类型(1客房2活动)"`
	CheckIn     time.Time  `gorm:"type:date;not null;comment:入住日/活动日"`
	CheckOut    *time.Time `gorm:"type:date;comment:离店日(活动为空)"`
	Quantity    int        `gorm:"not null;comment:预订数量"`
	OwnerID     uint       `gorm:"index;not null;comment:下单用户ID"`
	GuestName   string     `gorm:"size:100;not null;comment:入住人姓名"`
	GuestEmail  string     `gorm:"size:100;not null;comment:入住人邮箱"`
	GuestPhone  string     `gorm:"size:20;comment:入住人电话"`
	TotalPrice  int64      `gorm:"not null;comment:总金额(分)"`
	Currency    string     `gorm:"size:3;not null;default:CNY;comment:币种"`
	PaymentRef  string     `gorm:"size:64;comment:支付授权凭证号"`
	Status      int        `gorm:"index;type:tinyint;default:1;comment:状态(1已确认2已取消)"`
	CreatedAt   time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt   time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ReservationModel) TableName() string {
	return "reservations"
}
