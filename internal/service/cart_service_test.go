package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubIdentityProvider struct {
	mu          sync.Mutex
	current     *Identity
	subscribers []func(*Identity)
}

func (p *stubIdentityProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	identity := *p.current
	return &identity
}

func (p *stubIdentityProvider) Subscribe(fn func(*Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
	return func() {}
}

func (p *stubIdentityProvider) set(identity *Identity) {
	p.mu.Lock()
	p.current = identity
	fns := append([]func(*Identity){}, p.subscribers...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(identity)
	}
}

type stubPromoValidator struct {
	validate func(ctx context.Context, code string, subtotal models.Money) (*models.PromoCode, error)
}

func (v *stubPromoValidator) Validate(ctx context.Context, code string, subtotal models.Money) (*models.PromoCode, error) {
	return v.validate(ctx, code, subtotal)
}

func percentPromoValidator(code string, percent int64) *stubPromoValidator {
	return &stubPromoValidator{
		validate: func(_ context.Context, raw string, _ models.Money) (*models.PromoCode, error) {
			if raw != code {
				return nil, ErrPromoCodeInvalid
			}
			return &models.PromoCode{
				Code:  code,
				Kind:  constants.DiscountTypePercent,
				Value: models.NewMoneyFromDecimal(decimal.NewFromInt(percent)),
			}, nil
		},
	}
}

func setupCartServiceTest(t *testing.T) (*CartService, *stubIdentityProvider, *stubPromoValidator, repository.CartRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:cart_service_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartSnapshot{}); err != nil {
		t.Fatalf("migrate cart snapshot failed: %v", err)
	}
	if err := db.Where("1 = 1").Unscoped().Delete(&models.CartSnapshot{}).Error; err != nil {
		t.Fatalf("clean cart snapshot failed: %v", err)
	}

	repo := repository.NewCartRepository(db)
	ids := &stubIdentityProvider{}
	validator := percentPromoValidator("WELCOME10", 10)
	svc := NewCartService(repo, ids, validator)
	t.Cleanup(svc.Close)
	return svc, ids, validator, repo
}

func addLatte(t *testing.T, svc *CartService, price string) {
	t.Helper()
	if err := svc.AddItem(AddItemInput{
		ProductID: 1,
		Name:      "拿铁",
		UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
	}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "4.50")
	addLatte(t, svc, "4.50")

	items := svc.Items()
	if len(items) != 1 {
		t.Fatalf("items want 1 got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("quantity want 2 got %d", items[0].Quantity)
	}
	if svc.TotalItems() != 2 {
		t.Fatalf("total items want 2 got %d", svc.TotalItems())
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	if err := svc.AddItem(AddItemInput{ProductID: 0}); !errors.Is(err, ErrItemInvalid) {
		t.Fatalf("want ErrItemInvalid got %v", err)
	}
	if err := svc.AddItem(AddItemInput{
		ProductID: 1,
		UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("-1")),
	}); !errors.Is(err, ErrItemInvalid) {
		t.Fatalf("want ErrItemInvalid for negative price got %v", err)
	}
}

func TestChangeQuantityRemovesLineAtZero(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "4.50")
	addLatte(t, svc, "4.50")

	if err := svc.ChangeQuantity(1, -1); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if svc.TotalItems() != 1 {
		t.Fatalf("total items want 1 got %d", svc.TotalItems())
	}
	if err := svc.ChangeQuantity(1, -1); err != nil {
		t.Fatalf("decrement to zero failed: %v", err)
	}
	if !svc.IsEmpty() {
		t.Fatal("cart should be empty after quantity reaches zero")
	}
}

func TestChangeQuantityMissingItemIsNoop(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "4.50")
	if err := svc.ChangeQuantity(99, 1); err != nil {
		t.Fatalf("missing item change failed: %v", err)
	}
	if svc.TotalItems() != 1 {
		t.Fatalf("total items want 1 got %d", svc.TotalItems())
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "4.50")
	if err := svc.RemoveItem(1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := svc.RemoveItem(1); err != nil {
		t.Fatalf("repeat remove failed: %v", err)
	}
	if !svc.IsEmpty() {
		t.Fatal("cart should be empty")
	}
}

func TestSetFulfillmentNormalizesLegacyValues(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	cases := map[string]string{
		"dine_in":    constants.FulfillmentDineIn,
		"sur place":  constants.FulfillmentDineIn,
		"à emporter": constants.FulfillmentTakeaway,
		"livraison":  constants.FulfillmentDelivery,
	}
	for raw, want := range cases {
		if err := svc.SetFulfillment(raw); err != nil {
			t.Fatalf("set fulfillment %q failed: %v", raw, err)
		}
		if got := svc.Fulfillment(); got != want {
			t.Fatalf("fulfillment for %q want %s got %s", raw, want, got)
		}
	}

	if err := svc.SetFulfillment("drive_through"); !errors.Is(err, ErrFulfillmentInvalid) {
		t.Fatalf("want ErrFulfillmentInvalid got %v", err)
	}
	if err := svc.SetFulfillment(""); !errors.Is(err, ErrFulfillmentInvalid) {
		t.Fatalf("want ErrFulfillmentInvalid for empty got %v", err)
	}
}

func TestPromoAndLoyaltyMutuallyExclusive(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "10.00")

	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err != nil {
		t.Fatalf("apply promo failed: %v", err)
	}
	if _, ok := svc.Promotion().(models.PromoApplied); !ok {
		t.Fatalf("promotion want PromoApplied got %T", svc.Promotion())
	}

	reward := models.LoyaltyReward{
		Name:           "半价咖啡日",
		Kind:           constants.RewardTypePercent,
		DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		PointsRequired: 500,
	}
	if err := svc.ApplyLoyaltyReward(reward); err != nil {
		t.Fatalf("apply reward failed: %v", err)
	}
	loyalty, ok := svc.Promotion().(models.LoyaltyApplied)
	if !ok {
		t.Fatalf("promotion want LoyaltyApplied got %T", svc.Promotion())
	}
	if loyalty.Reward.Name != "半价咖啡日" {
		t.Fatalf("reward mismatch: %+v", loyalty.Reward)
	}

	// 再次应用优惠码应替换积分奖励
	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err != nil {
		t.Fatalf("re-apply promo failed: %v", err)
	}
	if _, ok := svc.Promotion().(models.PromoApplied); !ok {
		t.Fatalf("promotion want PromoApplied got %T", svc.Promotion())
	}
}

func TestInvalidPromoKeepsExistingPromotion(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "10.00")

	reward := models.LoyaltyReward{
		Name:           "会员九五折",
		Kind:           constants.RewardTypePercent,
		DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		PointsRequired: 100,
	}
	if err := svc.ApplyLoyaltyReward(reward); err != nil {
		t.Fatalf("apply reward failed: %v", err)
	}

	if err := svc.ApplyPromoCode(context.Background(), "BOGUS"); !errors.Is(err, ErrPromoCodeInvalid) {
		t.Fatalf("want ErrPromoCodeInvalid got %v", err)
	}
	loyalty, ok := svc.Promotion().(models.LoyaltyApplied)
	if !ok {
		t.Fatalf("existing reward should survive, got %T", svc.Promotion())
	}
	if loyalty.Reward.Name != "会员九五折" {
		t.Fatalf("reward mismatch: %+v", loyalty.Reward)
	}
}

func TestRemovePromotionIdempotent(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "10.00")

	// 未生效时移除为无操作
	if err := svc.RemovePromoCode(); err != nil {
		t.Fatalf("remove absent promo failed: %v", err)
	}
	if err := svc.RemoveLoyaltyReward(); err != nil {
		t.Fatalf("remove absent reward failed: %v", err)
	}

	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err != nil {
		t.Fatalf("apply promo failed: %v", err)
	}
	// 移除积分奖励不应影响生效中的优惠码
	if err := svc.RemoveLoyaltyReward(); err != nil {
		t.Fatalf("remove reward failed: %v", err)
	}
	if _, ok := svc.Promotion().(models.PromoApplied); !ok {
		t.Fatalf("promo should survive reward removal, got %T", svc.Promotion())
	}

	if err := svc.RemovePromoCode(); err != nil {
		t.Fatalf("remove promo failed: %v", err)
	}
	if svc.Promotion() != nil {
		t.Fatalf("promotion want nil got %T", svc.Promotion())
	}
	if err := svc.RemovePromoCode(); err != nil {
		t.Fatalf("repeat remove promo failed: %v", err)
	}
}

func TestOrderTotalsWithPercentPromo(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	// 两杯 10.00 的拿铁，WELCOME10 打九折
	addLatte(t, svc, "10.00")
	addLatte(t, svc, "10.00")
	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err != nil {
		t.Fatalf("apply promo failed: %v", err)
	}

	totals := svc.Totals()
	assertMoney(t, "subtotal", totals.SubtotalExclusive, "20.00")
	assertMoney(t, "discount", totals.DiscountExclusive, "2.00")
	assertMoney(t, "tax", totals.Tax, "1.80")
	assertMoney(t, "total", totals.TotalInclusive, "19.80")
}

func TestOrderTotalsWithPercentLoyaltyReward(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "10.00")
	addLatte(t, svc, "10.00")
	if err := svc.ApplyLoyaltyReward(models.LoyaltyReward{
		Name:           "半价咖啡日",
		Kind:           constants.RewardTypePercent,
		DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		PointsRequired: 500,
	}); err != nil {
		t.Fatalf("apply reward failed: %v", err)
	}

	totals := svc.Totals()
	assertMoney(t, "subtotal", totals.SubtotalExclusive, "20.00")
	assertMoney(t, "discount", totals.DiscountExclusive, "10.00")
	assertMoney(t, "tax", totals.Tax, "1.00")
	assertMoney(t, "total", totals.TotalInclusive, "11.00")

	// 优惠码替换积分奖励后折扣按新促销重算
	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err != nil {
		t.Fatalf("apply promo failed: %v", err)
	}
	totals = svc.Totals()
	assertMoney(t, "discount", totals.DiscountExclusive, "2.00")
	assertMoney(t, "tax", totals.Tax, "1.80")
	assertMoney(t, "total", totals.TotalInclusive, "19.80")
}

func TestOrderTotalsClampNegativeTaxableBase(t *testing.T) {
	svc, ids, validator, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "5.00")

	// 固定金额折扣超过小计
	validator.validate = func(_ context.Context, code string, _ models.Money) (*models.PromoCode, error) {
		return &models.PromoCode{
			Code:  code,
			Kind:  constants.DiscountTypeFixed,
			Value: models.NewMoneyFromDecimal(decimal.NewFromInt(8)),
		}, nil
	}
	if err := svc.ApplyPromoCode(context.Background(), "BIGFIX"); err != nil {
		t.Fatalf("apply promo failed: %v", err)
	}

	totals := svc.Totals()
	assertMoney(t, "tax", totals.Tax, "0.00")
	assertMoney(t, "total", totals.TotalInclusive, "0.00")
}

func TestFreeProductRewardContributesZeroDiscount(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "10.00")

	productID := uint(101)
	if err := svc.ApplyLoyaltyReward(models.LoyaltyReward{
		Name:            "免费浓缩咖啡",
		Kind:            constants.RewardTypeFreeProduct,
		PointsRequired:  300,
		RewardProductID: &productID,
	}); err != nil {
		t.Fatalf("apply reward failed: %v", err)
	}

	totals := svc.Totals()
	assertMoney(t, "discount", totals.DiscountExclusive, "0.00")
	assertMoney(t, "total", totals.TotalInclusive, "11.00")
}

func TestApplyPromoSingleFlight(t *testing.T) {
	svc, ids, validator, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "10.00")

	started := make(chan struct{})
	release := make(chan struct{})
	validator.validate = func(_ context.Context, code string, _ models.Money) (*models.PromoCode, error) {
		close(started)
		<-release
		return &models.PromoCode{
			Code:  code,
			Kind:  constants.DiscountTypePercent,
			Value: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		}, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- svc.ApplyPromoCode(context.Background(), "SLOW10")
	}()
	<-started

	// 校验进行中的并发应用被拒绝
	if err := svc.ApplyPromoCode(context.Background(), "FAST20"); !errors.Is(err, ErrPromoApplyInFlight) {
		t.Fatalf("want ErrPromoApplyInFlight got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	promo, ok := svc.Promotion().(models.PromoApplied)
	if !ok {
		t.Fatalf("promotion want PromoApplied got %T", svc.Promotion())
	}
	if promo.Promo.Code != "SLOW10" {
		t.Fatalf("promo code want SLOW10 got %s", promo.Promo.Code)
	}
}

func TestIdentityRebindWipesCart(t *testing.T) {
	svc, ids, _, repo := setupCartServiceTest(t)

	alice := UserIdentity(1)
	ids.set(&alice)
	addLatte(t, svc, "4.50")
	if err := svc.SetFulfillment(constants.FulfillmentDineIn); err != nil {
		t.Fatalf("set fulfillment failed: %v", err)
	}
	if svc.OwnerKey() != "user:1" {
		t.Fatalf("owner want user:1 got %s", svc.OwnerKey())
	}

	// 切换身份后购物车被清空并重新绑定，不自动继承任何一方的内容
	bob := UserIdentity(2)
	ids.set(&bob)
	if !svc.IsEmpty() {
		t.Fatal("cart should be wiped after identity change")
	}
	if svc.OwnerKey() != "user:2" {
		t.Fatalf("owner want user:2 got %s", svc.OwnerKey())
	}
	if svc.Fulfillment() != constants.FulfillmentUnset {
		t.Fatalf("fulfillment should reset, got %s", svc.Fulfillment())
	}

	// 原身份的快照不受影响
	saved, err := repo.Load("user:1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if saved == nil || len(saved.Items) != 1 {
		t.Fatalf("previous owner snapshot should survive: %+v", saved)
	}
}

func TestFirstBindKeepsGuestContents(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)

	// 尚无会话身份时允许操作，仅保留内存态
	addLatte(t, svc, "4.50")
	if svc.OwnerKey() != "" {
		t.Fatalf("owner should be empty got %s", svc.OwnerKey())
	}

	identity := UserIdentity(7)
	ids.set(&identity)
	addLatte(t, svc, "4.50")

	if svc.OwnerKey() != "user:7" {
		t.Fatalf("owner want user:7 got %s", svc.OwnerKey())
	}
	if svc.TotalItems() != 2 {
		t.Fatalf("first bind should keep contents, total want 2 got %d", svc.TotalItems())
	}
}

func TestRebindSeedsRevisionFromExistingSnapshot(t *testing.T) {
	svc, ids, _, repo := setupCartServiceTest(t)

	bob := UserIdentity(2)
	ids.set(&bob)
	addLatte(t, svc, "4.50")
	addLatte(t, svc, "4.50") // user:2 快照版本推进到 2

	alice := UserIdentity(1)
	ids.set(&alice)
	addLatte(t, svc, "3.00")

	// 切回已有快照的身份后，写入不应因版本回退被拒
	ids.set(&bob)
	addLatte(t, svc, "2.00")

	saved, err := repo.Load("user:2")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if saved.Revision != 3 {
		t.Fatalf("revision want 3 got %d", saved.Revision)
	}
	if len(saved.Items) != 1 {
		t.Fatalf("rebind should wipe old contents, items want 1 got %d", len(saved.Items))
	}
}

func TestClearKeepsOwnerAndResetsState(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "4.50")
	if err := svc.SetFulfillment(constants.FulfillmentTakeaway); err != nil {
		t.Fatalf("set fulfillment failed: %v", err)
	}
	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err != nil {
		t.Fatalf("apply promo failed: %v", err)
	}

	if err := svc.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !svc.IsEmpty() {
		t.Fatal("cart should be empty")
	}
	if svc.Fulfillment() != constants.FulfillmentUnset {
		t.Fatalf("fulfillment should reset got %s", svc.Fulfillment())
	}
	if svc.Promotion() != nil {
		t.Fatalf("promotion should reset got %T", svc.Promotion())
	}
	if svc.OwnerKey() != "user:1" {
		t.Fatalf("owner should survive clear got %s", svc.OwnerKey())
	}
}

func TestRehydrateRestoresSnapshot(t *testing.T) {
	svc, ids, _, repo := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "4.50")
	if err := svc.SetFulfillment(constants.FulfillmentDelivery); err != nil {
		t.Fatalf("set fulfillment failed: %v", err)
	}

	// 模拟重启：新引擎实例从快照恢复
	restarted := NewCartService(repo, ids, percentPromoValidator("WELCOME10", 10))
	defer restarted.Close()
	if err := restarted.Rehydrate(); err != nil {
		t.Fatalf("rehydrate failed: %v", err)
	}
	if restarted.TotalItems() != 1 {
		t.Fatalf("total items want 1 got %d", restarted.TotalItems())
	}
	if restarted.Fulfillment() != constants.FulfillmentDelivery {
		t.Fatalf("fulfillment want delivery got %s", restarted.Fulfillment())
	}
	if restarted.OwnerKey() != "user:1" {
		t.Fatalf("owner want user:1 got %s", restarted.OwnerKey())
	}
}

func TestApplyLoyaltyRewardRejectsInvalidInput(t *testing.T) {
	svc, ids, _, _ := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)

	if err := svc.ApplyLoyaltyReward(models.LoyaltyReward{}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("want ErrRewardInvalid got %v", err)
	}
	if err := svc.ApplyLoyaltyReward(models.LoyaltyReward{
		Name: "神秘奖励",
		Kind: "mystery",
	}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("want ErrRewardInvalid for unknown kind got %v", err)
	}
}

type flakyCartRepository struct {
	inner    repository.CartRepository
	failSave bool
}

func (r *flakyCartRepository) Load(ownerKey string) (*models.Cart, error) {
	return r.inner.Load(ownerKey)
}

func (r *flakyCartRepository) Save(cart *models.Cart) error {
	if r.failSave {
		return errors.New("快照写入失败")
	}
	return r.inner.Save(cart)
}

func (r *flakyCartRepository) Delete(ownerKey string) error {
	return r.inner.Delete(ownerKey)
}

func TestMutationRollsBackWhenSaveFails(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:cart_rollback_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CartSnapshot{}); err != nil {
		t.Fatalf("migrate cart snapshot failed: %v", err)
	}
	if err := db.Where("1 = 1").Unscoped().Delete(&models.CartSnapshot{}).Error; err != nil {
		t.Fatalf("clean cart snapshot failed: %v", err)
	}

	repo := &flakyCartRepository{inner: repository.NewCartRepository(db)}
	ids := &stubIdentityProvider{}
	svc := NewCartService(repo, ids, percentPromoValidator("WELCOME10", 10))
	t.Cleanup(svc.Close)
	identity := UserIdentity(1)
	ids.set(&identity)

	addLatte(t, svc, "4.50")

	// 保存失败的变更不留下半程状态
	repo.failSave = true
	if err := svc.AddItem(AddItemInput{
		ProductID: 2,
		Name:      "可颂",
		UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("3.20")),
	}); err == nil {
		t.Fatal("want save error got nil")
	}
	if svc.TotalItems() != 1 {
		t.Fatalf("failed mutation should roll back, total want 1 got %d", svc.TotalItems())
	}
	if err := svc.ApplyPromoCode(context.Background(), "WELCOME10"); err == nil {
		t.Fatal("want save error got nil")
	}
	if svc.Promotion() != nil {
		t.Fatalf("failed promo apply should roll back, got %T", svc.Promotion())
	}
	if err := svc.SetFulfillment(constants.FulfillmentDineIn); err == nil {
		t.Fatal("want save error got nil")
	}
	if svc.Fulfillment() != constants.FulfillmentUnset {
		t.Fatalf("failed fulfillment change should roll back, got %s", svc.Fulfillment())
	}

	// 失败的变更不推进版本号，恢复后写入仍按顺延版本落盘
	repo.failSave = false
	addLatte(t, svc, "4.50")
	saved, err := repo.Load("user:1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if saved.Revision != 2 {
		t.Fatalf("revision want 2 got %d", saved.Revision)
	}
}

func TestMutationRollsBackOnRevisionConflict(t *testing.T) {
	svc, ids, _, repo := setupCartServiceTest(t)
	identity := UserIdentity(1)
	ids.set(&identity)
	addLatte(t, svc, "4.50")

	// 另一标签页直接写入更新的快照版本
	other := models.NewCart("user:1")
	other.Revision = 5
	if err := repo.Save(other); err != nil {
		t.Fatalf("save newer snapshot failed: %v", err)
	}

	if err := svc.AddItem(AddItemInput{
		ProductID: 2,
		Name:      "可颂",
		UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("3.20")),
	}); !errors.Is(err, repository.ErrRevisionConflict) {
		t.Fatalf("want ErrRevisionConflict got %v", err)
	}
	if svc.TotalItems() != 1 {
		t.Fatalf("conflicted mutation should roll back, total want 1 got %d", svc.TotalItems())
	}
}

func assertMoney(t *testing.T, label string, got models.Money, want string) {
	t.Helper()
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s want %s got %s", label, want, got.Decimal.String())
	}
}
