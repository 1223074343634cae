package user

import (
	"time"
)

// User 住客账号实体(聚合根)
// DDD设计说明:
// 1. User是账号聚合的根实体,预订单通过OwnerID关联到账号
// 2. 密码已加密存储(bcrypt),不应该有GetPassword()等方法暴露明文
// 3. 领域实体不依赖GORM tag(infrastructure层的Repository实现时会处理映射)
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	Phone     string // 联系电话(预订确认短信用)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新账号(工厂方法)
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, nickname, phone string) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateNickname 更新昵称(领域行为)
func (u *User) UpdateNickname(nickname string) {
	u.Nickname = nickname
	u.UpdatedAt = time.Now()
}

// UpdatePhone 更新联系电话(领域行为)
func (u *User) UpdatePhone(phone string) {
	u.Phone = phone
	u.UpdatedAt = time.Now()
}
