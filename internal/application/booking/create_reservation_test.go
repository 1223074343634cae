package booking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/product"
	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
	"github.com/xiebiao/hotelbooking/pkg/metrics"
)

func TestMain(m *testing.M) {
	// 用例内部会上报指标,测试前必须完成注册
	metrics.InitMetrics()
	os.Exit(m.Run())
}

// ---------- 测试替身 ----------

type fakeProductRepo struct {
	products map[uint]*product.Product
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uint) (*product.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) ListByHotelID(_ context.Context, hotelID uint) ([]*product.Product, error) {
	var result []*product.Product
	for _, p := range r.products {
		if p.HotelID == hotelID {
			result = append(result, p)
		}
	}
	return result, nil
}

// fakeInventoryRepo 内存库存,Debit保持原子条件更新的语义
// failDebitOn可以让指定日期的扣减失败,模拟并发抢光的场景
type fakeInventoryRepo struct {
	days        map[string]*inventory.InventoryDay
	failDebitOn map[string]bool
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		days:        make(map[string]*inventory.InventoryDay),
		failDebitOn: make(map[string]bool),
	}
}

func invKey(productID uint, date time.Time) string {
	return fmt.Sprintf("%d|%s", productID, inventory.NormalizeDate(date).Format("2006-01-02"))
}

func (r *fakeInventoryRepo) seed(productID uint, productType product.Type, date time.Time, total int, price int64) {
	day := inventory.NewInventoryDay(productID, productType, date, total, price, "CNY", true)
	r.days[invKey(productID, date)] = day
}

func (r *fakeInventoryRepo) booked(productID uint, date time.Time) int {
	if day, ok := r.days[invKey(productID, date)]; ok {
		return day.BookedQuantity
	}
	return -1
}

func (r *fakeInventoryRepo) SetCapacity(_ context.Context, day *inventory.InventoryDay) error {
	r.days[invKey(day.ProductID, day.Date)] = day
	return nil
}

func (r *fakeInventoryRepo) GetDay(_ context.Context, productID uint, date time.Time) (*inventory.InventoryDay, error) {
	day, ok := r.days[invKey(productID, date)]
	if !ok {
		return nil, inventory.ErrNoInventory
	}
	return day, nil
}

func (r *fakeInventoryRepo) GetRange(_ context.Context, productID uint, from, to time.Time) ([]*inventory.InventoryDay, error) {
	var result []*inventory.InventoryDay
	for _, day := range r.days {
		if day.ProductID == productID && !day.Date.Before(from) && day.Date.Before(to) {
			result = append(result, day)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *fakeInventoryRepo) Debit(_ context.Context, productID uint, date time.Time, quantity int) error {
	key := invKey(productID, date)
	if r.failDebitOn[key] {
		return inventory.ErrOverbook
	}
	day, ok := r.days[key]
	if !ok {
		return inventory.ErrNoInventory
	}
	if !day.IsAvailable || day.BookedQuantity+quantity > day.TotalQuantity {
		return inventory.ErrOverbook
	}
	day.BookedQuantity += quantity
	return nil
}

func (r *fakeInventoryRepo) Credit(_ context.Context, productID uint, date time.Time, quantity int) error {
	day, ok := r.days[invKey(productID, date)]
	if !ok {
		return inventory.ErrNoInventory
	}
	day.BookedQuantity -= quantity
	if day.BookedQuantity < 0 {
		day.BookedQuantity = 0
	}
	return nil
}

func (r *fakeInventoryRepo) LockDay(ctx context.Context, productID uint, date time.Time) (*inventory.InventoryDay, error) {
	return r.GetDay(ctx, productID, date)
}

type fakeReservationRepo struct {
	byReference map[string]*reservation.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byReference: make(map[string]*reservation.Reservation)}
}

func (r *fakeReservationRepo) Create(_ context.Context, rsv *reservation.Reservation) error {
	r.byReference[rsv.Reference] = rsv
	return nil
}

func (r *fakeReservationRepo) FindByReference(_ context.Context, reference string) (*reservation.Reservation, error) {
	rsv, ok := r.byReference[reference]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return rsv, nil
}

func (r *fakeReservationRepo) UpdateStatus(_ context.Context, rsv *reservation.Reservation) error {
	r.byReference[rsv.Reference] = rsv
	return nil
}

func (r *fakeReservationRepo) ListByOwnerID(_ context.Context, ownerID uint, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	var result []*reservation.Reservation
	for _, rsv := range r.byReference {
		if rsv.OwnerID == ownerID {
			result = append(result, rsv)
		}
	}
	return result, int64(len(result)), nil
}

type fakeVerifier struct {
	err          error
	lastRef      string
	lastAmount   int64
	lastCurrency string
}

func (v *fakeVerifier) VerifyAuthorization(_ context.Context, paymentRef string, amount int64, currency string) error {
	v.lastRef = paymentRef
	v.lastAmount = amount
	v.lastCurrency = currency
	return v.err
}

type fakePublisher struct {
	routingKeys []string
}

func (p *fakePublisher) Publish(routingKey string, _ interface{}) error {
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

type fakeInvalidator struct {
	invalidated []uint
}

func (c *fakeInvalidator) Invalidate(_ context.Context, productID uint) error {
	c.invalidated = append(c.invalidated, productID)
	return nil
}

// ---------- 测试脚手架 ----------

type createFixture struct {
	uc        *CreateReservationUseCase
	invRepo   *fakeInventoryRepo
	rsvRepo   *fakeReservationRepo
	verifier  *fakeVerifier
	publisher *fakePublisher
	cache     *fakeInvalidator
}

func newCreateFixture() *createFixture {
	invRepo := newFakeInventoryRepo()
	rsvRepo := newFakeReservationRepo()
	verifier := &fakeVerifier{}
	publisher := &fakePublisher{}
	cache := &fakeInvalidator{}
	productRepo := &fakeProductRepo{products: map[uint]*product.Product{
		1: {ID: 1, HotelID: 1, Name: "豪华大床房", Type: product.TypeRoom},
		2: {ID: 2, HotelID: 1, Name: "温泉夜场", Type: product.TypeEvent},
	}}
	return &createFixture{
		uc:        NewCreateReservationUseCase(rsvRepo, invRepo, productRepo, verifier, publisher, cache),
		invRepo:   invRepo,
		rsvRepo:   rsvRepo,
		verifier:  verifier,
		publisher: publisher,
		cache:     cache,
	}
}

func day(offset int) time.Time {
	return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func roomRequest(nights, quantity int) CreateReservationRequest {
	checkOut := day(nights)
	return CreateReservationRequest{
		OwnerID:    100,
		ProductID:  1,
		CheckIn:    day(0),
		CheckOut:   &checkOut,
		Quantity:   quantity,
		GuestName:  "测试住客",
		GuestEmail: "guest@test.com",
		PaymentRef: "PAY-TEST-001",
	}
}

// ---------- 用例测试 ----------

// TestCreateReservation_Success 测试跨天预订的完整成功路径
func TestCreateReservation_Success(t *testing.T) {
	f := newCreateFixture()
	f.invRepo.seed(1, product.TypeRoom, day(0), 10, 29900)
	f.invRepo.seed(1, product.TypeRoom, day(1), 10, 31900)

	resp, err := f.uc.Execute(context.Background(), roomRequest(2, 2))
	if err != nil {
		t.Fatalf("预订失败: %v", err)
	}

	// 总价必须按每日在库价格计算,而非前端传入
	expectedPrice := int64((29900 + 31900) * 2)
	if resp.TotalPrice != expectedPrice {
		t.Errorf("总价期望%d，实际%d", expectedPrice, resp.TotalPrice)
	}
	if resp.Status != "已确认" {
		t.Errorf("状态期望已确认，实际%s", resp.Status)
	}

	// 两晚的库存各扣2
	if f.invRepo.booked(1, day(0)) != 2 || f.invRepo.booked(1, day(1)) != 2 {
		t.Errorf("两晚应各扣2: 第1晚=%d 第2晚=%d", f.invRepo.booked(1, day(0)), f.invRepo.booked(1, day(1)))
	}

	// 台账落库
	if _, err := f.rsvRepo.FindByReference(context.Background(), resp.Reference); err != nil {
		t.Errorf("预订单应已落库: %v", err)
	}

	// 支付核验用的是系统算出的总价
	if f.verifier.lastAmount != expectedPrice || f.verifier.lastRef != "PAY-TEST-001" {
		t.Errorf("支付核验参数错误: ref=%s amount=%d", f.verifier.lastRef, f.verifier.lastAmount)
	}

	// 旁路动作:事件 + 缓存失效
	if len(f.publisher.routingKeys) != 1 || f.publisher.routingKeys[0] != RoutingKeyReservationConfirmed {
		t.Errorf("应发布reservation.confirmed事件，实际: %v", f.publisher.routingKeys)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != 1 {
		t.Errorf("应失效产品1的日历缓存，实际: %v", f.cache.invalidated)
	}
	t.Log("✅ 跨天预订成功路径通过")
}

// TestCreateReservation_MidStayDebitFails 测试中间一晚扣减失败时的补偿回滚
// 预检通过但扣减时被并发抢光,已扣减的天必须全部补回
func TestCreateReservation_MidStayDebitFails(t *testing.T) {
	f := newCreateFixture()
	f.invRepo.seed(1, product.TypeRoom, day(0), 10, 29900)
	f.invRepo.seed(1, product.TypeRoom, day(1), 10, 29900)
	f.invRepo.seed(1, product.TypeRoom, day(2), 10, 29900)
	// 预检查得到余量,但第2晚真正扣减时失败(模拟并发竞争)
	f.invRepo.failDebitOn[invKey(1, day(1))] = true

	_, err := f.uc.Execute(context.Background(), roomRequest(3, 2))
	if err == nil {
		t.Fatal("第2晚扣减失败时整单应该失败")
	}
	if !errors.Is(err, inventory.ErrOverbook) {
		t.Errorf("期望错误链里有ErrOverbook，实际: %v", err)
	}

	// 第1晚的扣减必须已回补,不留残扣
	if got := f.invRepo.booked(1, day(0)); got != 0 {
		t.Errorf("第1晚应回补为0，实际%d", got)
	}

	// 没有台账、没有事件
	if len(f.rsvRepo.byReference) != 0 {
		t.Error("失败的预订不应落库")
	}
	if len(f.publisher.routingKeys) != 0 {
		t.Error("失败的预订不应发事件")
	}
	t.Log("✅ 补偿回滚:要么全占用,要么一无所动")
}

// TestCreateReservation_NotAvailable 测试预检的保守拒绝
func TestCreateReservation_NotAvailable(t *testing.T) {
	t.Run("中间一晚未配置库存", func(t *testing.T) {
		f := newCreateFixture()
		f.invRepo.seed(1, product.TypeRoom, day(0), 10, 29900)
		// day(1)未配置
		f.invRepo.seed(1, product.TypeRoom, day(2), 10, 29900)

		_, err := f.uc.Execute(context.Background(), roomRequest(3, 1))
		if !errors.Is(err, inventory.ErrNotAvailable) {
			t.Errorf("期望ErrNotAvailable，实际: %v", err)
		}
		// 预检失败时一间都不应被扣
		if f.invRepo.booked(1, day(0)) != 0 {
			t.Error("预检失败不应产生任何扣减")
		}
	})

	t.Run("余量不足", func(t *testing.T) {
		f := newCreateFixture()
		f.invRepo.seed(1, product.TypeRoom, day(0), 5, 29900)
		f.invRepo.seed(1, product.TypeRoom, day(1), 5, 29900)

		_, err := f.uc.Execute(context.Background(), roomRequest(2, 8))
		if !errors.Is(err, inventory.ErrNotAvailable) {
			t.Errorf("期望ErrNotAvailable，实际: %v", err)
		}
	})
}

// TestCreateReservation_PaymentRejected 测试支付核验失败
func TestCreateReservation_PaymentRejected(t *testing.T) {
	f := newCreateFixture()
	f.invRepo.seed(1, product.TypeRoom, day(0), 10, 29900)
	paymentErr := apperrors.New(apperrors.ErrCodeInvalidParams, "支付授权无效")
	f.verifier.err = paymentErr

	_, err := f.uc.Execute(context.Background(), roomRequest(1, 1))
	if !errors.Is(err, paymentErr) {
		t.Errorf("期望支付核验错误透传，实际: %v", err)
	}
	// 核验在任何扣减之前,失败时库存纹丝不动
	if f.invRepo.booked(1, day(0)) != 0 {
		t.Error("支付核验失败不应产生扣减")
	}
}

// TestCreateReservation_InvalidParams 测试参数校验
func TestCreateReservation_InvalidParams(t *testing.T) {
	f := newCreateFixture()

	t.Run("数量非正", func(t *testing.T) {
		req := roomRequest(1, 0)
		if _, err := f.uc.Execute(context.Background(), req); !errors.Is(err, reservation.ErrInvalidQuantity) {
			t.Errorf("期望ErrInvalidQuantity，实际: %v", err)
		}
	})

	t.Run("入住人信息不完整", func(t *testing.T) {
		req := roomRequest(1, 1)
		req.GuestEmail = ""
		if _, err := f.uc.Execute(context.Background(), req); !errors.Is(err, reservation.ErrInvalidGuestInfo) {
			t.Errorf("期望ErrInvalidGuestInfo，实际: %v", err)
		}
	})

	t.Run("产品不存在", func(t *testing.T) {
		req := roomRequest(1, 1)
		req.ProductID = 999
		if _, err := f.uc.Execute(context.Background(), req); !errors.Is(err, apperrors.ErrProductNotFound) {
			t.Errorf("期望ErrProductNotFound，实际: %v", err)
		}
	})

	t.Run("客房缺离店日", func(t *testing.T) {
		req := roomRequest(1, 1)
		req.CheckOut = nil
		if _, err := f.uc.Execute(context.Background(), req); !errors.Is(err, inventory.ErrInvalidDateRange) {
			t.Errorf("期望ErrInvalidDateRange，实际: %v", err)
		}
	})
}

// TestCreateReservation_Event 测试活动预订的单日语义
func TestCreateReservation_Event(t *testing.T) {
	f := newCreateFixture()
	f.invRepo.seed(2, product.TypeEvent, day(0), 100, 9900)

	resp, err := f.uc.Execute(context.Background(), CreateReservationRequest{
		OwnerID:    100,
		ProductID:  2,
		CheckIn:    day(0),
		Quantity:   4,
		GuestName:  "测试住客",
		GuestEmail: "guest@test.com",
		PaymentRef: "PAY-TEST-002",
	})
	if err != nil {
		t.Fatalf("活动预订失败: %v", err)
	}
	if resp.TotalPrice != 9900*4 {
		t.Errorf("总价期望%d，实际%d", 9900*4, resp.TotalPrice)
	}
	if resp.CheckOut != "" {
		t.Errorf("活动预订不应有离店日: %s", resp.CheckOut)
	}
	if f.invRepo.booked(2, day(0)) != 4 {
		t.Errorf("活动当天应扣4个名额，实际%d", f.invRepo.booked(2, day(0)))
	}
}

// TestCreateReservation_NilSideEffects 测试旁路依赖为nil时的降级
// 本地开发不配MQ和Redis,预订主链路必须照常工作
func TestCreateReservation_NilSideEffects(t *testing.T) {
	invRepo := newFakeInventoryRepo()
	invRepo.seed(1, product.TypeRoom, day(0), 10, 29900)
	productRepo := &fakeProductRepo{products: map[uint]*product.Product{
		1: {ID: 1, HotelID: 1, Name: "豪华大床房", Type: product.TypeRoom},
	}}
	uc := NewCreateReservationUseCase(newFakeReservationRepo(), invRepo, productRepo, &fakeVerifier{}, nil, nil)

	if _, err := uc.Execute(context.Background(), roomRequest(1, 1)); err != nil {
		t.Fatalf("publisher/cache为nil时预订不应失败: %v", err)
	}
	t.Log("✅ 旁路依赖缺席时主链路不受影响")
}
