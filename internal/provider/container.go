package provider

import (
	"github.com/cafe-next/internal/cache"
	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	CartRepo    repository.CartRepository
	LoyaltyRepo repository.LoyaltyRepository

	// Services
	IdentityProvider *service.SessionIdentityProvider
	PromoValidator   service.PromoValidator
	CartService      *service.CartService
	CartFacade       *service.CartFacade
	LoyaltyService   *service.LoyaltyService
	CheckoutService  *service.CheckoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	db := models.DB
	c.CartRepo = repository.NewCartRepository(db)
	c.LoyaltyRepo = repository.NewLoyaltyRepository(db)

	c.IdentityProvider = service.NewSessionIdentityProvider(cfg.Session.JWTSecret)
	c.PromoValidator = service.NewPromoValidator(&cfg.PromoValidator)
	c.CartService = service.NewCartService(c.CartRepo, c.IdentityProvider, c.PromoValidator)
	c.CartFacade = service.NewCartFacade(c.CartService)
	c.LoyaltyService = service.NewLoyaltyService(c.LoyaltyRepo)
	c.CheckoutService = service.NewCheckoutService(c.CartFacade, c.QueueClient)

	if err := c.CartService.Rehydrate(); err != nil {
		logger.Warnw("provider_cart_rehydrate_failed", "error", err)
	}

	return c
}
