package provider

import (
	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/credential"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ShopRepo       repository.ShopRepository
	OfferRepo      repository.OfferRepository
	VoucherRepo    repository.VoucherRepository
	EmployeeRepo   repository.EmployeeRepository
	PinAttemptRepo repository.PinAttemptRepository
	MemberRepo     repository.MemberRepository
	PointsRepo     repository.PointsRepository
	LogRepo        repository.RedemptionLogRepository

	// Services
	CredentialGenerator *credential.Generator
	PurchaseService     *service.PurchaseService
	EmployeeAuthService *service.EmployeeAuthService
	RedemptionService   *service.RedemptionService
	VoucherService      *service.VoucherService
	OfferService        *service.OfferService
	PointsService       *service.PointsService
	AuditService        *service.AuditService
	MemberAuthService   *service.MemberAuthService
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

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ShopRepo = repository.NewShopRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.EmployeeRepo = repository.NewEmployeeRepository(db)
	c.PinAttemptRepo = repository.NewPinAttemptRepository(db)
	c.MemberRepo = repository.NewMemberRepository(db)
	c.PointsRepo = repository.NewPointsRepository(db)
	c.LogRepo = repository.NewRedemptionLogRepository(db)
}

func (c *Container) initServices() {
	generator, err := credential.NewGenerator(credential.Options{
		Secret:        c.Config.Credential.SecretKey,
		KeyID:         c.Config.Credential.KeyID,
		PinLength:     c.Config.Voucher.PinLength,
		PinMaxRetries: c.Config.Voucher.PinMaxRetries,
	})
	if err != nil {
		logger.Errorw("provider_init_credential_generator_failed", "error", err)
		panic(err)
	}
	c.CredentialGenerator = generator

	c.PurchaseService = service.NewPurchaseService(c.Config, c.VoucherRepo, c.OfferRepo, c.ShopRepo, c.MemberRepo, c.PointsRepo, c.CredentialGenerator)
	c.EmployeeAuthService = service.NewEmployeeAuthService(c.Config, c.EmployeeRepo, c.PinAttemptRepo)
	c.RedemptionService = service.NewRedemptionService(c.VoucherRepo, c.OfferRepo, c.ShopRepo, c.EmployeeRepo, c.LogRepo, c.CredentialGenerator, c.QueueClient)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo)
	c.OfferService = service.NewOfferService(c.OfferRepo, c.EmployeeRepo)
	c.PointsService = service.NewPointsService(c.PointsRepo, c.MemberRepo)
	c.AuditService = service.NewAuditService(c.LogRepo)
	c.MemberAuthService = service.NewMemberAuthService(c.Config, c.MemberRepo)
}
