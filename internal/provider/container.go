package provider

import (
	"time"

	"github.com/buildhub-next/internal/authz"
	"github.com/buildhub-next/internal/cache"
	"github.com/buildhub-next/internal/config"
	"github.com/buildhub-next/internal/logger"
	"github.com/buildhub-next/internal/models"
	"github.com/buildhub-next/internal/queue"
	"github.com/buildhub-next/internal/repository"
	"github.com/buildhub-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ProfileRepo      repository.ProfileRepository
	SupplierRepo     repository.SupplierRepository
	MaterialRepo     repository.MaterialRepository
	OrderRepo        repository.OrderRepository
	DeliveryRepo     repository.DeliveryRepository
	NotificationRepo repository.NotificationRepository
	ReportRepo       repository.ReportRepository

	// Services
	AuthzService        *authz.Service
	EmailService        *service.EmailService
	NotificationService *service.NotificationService
	DeliveryService     *service.DeliveryService
	OrderService        *service.OrderService
	MaterialService     *service.MaterialService
	ProfileService      *service.ProfileService
	ReportService       *service.ReportService
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
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.SupplierRepo = repository.NewSupplierRepository(db)
	c.MaterialRepo = repository.NewMaterialRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.DeliveryRepo = repository.NewDeliveryRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.ReportRepo = repository.NewReportRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := authz.Bootstrap(c.AuthzService); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.OrderRepo, c.ProfileRepo, c.EmailService, c.QueueClient)
	c.DeliveryService = service.NewDeliveryService(
		c.DeliveryRepo,
		c.OrderRepo,
		c.ProfileRepo,
		c.AuthzService,
		c.QueueClient,
		c.NotificationService,
		time.Duration(c.Config.Delivery.AssignRetrySeconds)*time.Second,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.MaterialRepo, c.ProfileRepo, c.SupplierRepo, c.AuthzService, c.DeliveryService, c.NotificationService)
	c.MaterialService = service.NewMaterialService(c.MaterialRepo, c.SupplierRepo, c.ProfileRepo, c.AuthzService)
	c.ProfileService = service.NewProfileService(c.ProfileRepo, c.SupplierRepo, c.AuthzService)
	c.ReportService = service.NewReportService(
		c.ReportRepo,
		c.ProfileRepo,
		c.SupplierRepo,
		c.AuthzService,
		time.Duration(c.Config.Report.CacheTTLSeconds)*time.Second,
	)
}
