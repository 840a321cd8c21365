package router

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/container"
	"github.com/oksasatya/cosmebag/internal/infrastructure/catalog"
	"github.com/oksasatya/cosmebag/internal/infrastructure/search"
	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/navigation"
	"github.com/oksasatya/cosmebag/internal/router/modules"
	"github.com/oksasatya/cosmebag/internal/workspace"
	"github.com/oksasatya/cosmebag/pkg/helpers"
	"github.com/oksasatya/cosmebag/pkg/mailer/templates"
)

const recentScansTTL = 30 * 24 * time.Hour

// Deps are the services the HTTP modules are built from.
type Deps struct {
	Redis     *redis.Client
	Logger    *logrus.Logger
	Sessions  *application.SessionService
	Accessors *application.Accessors
	Catalog   *application.CatalogService
	Scans     *application.RecentScans
	Nav       *navigation.Store
	Spaces    *workspace.Manager

	CookieDomain string
	CookieSecure bool
	DebugMetrics bool
}

// BuildDeps constructs the application services from the container singletons.
func BuildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	repos := container.GetRepositories()

	// Optional collaborators stay untyped nil when unconfigured
	var images application.Uploader
	if u := helpers.NewGCSUploader(container.GetGCS(), cfg.GCSBucket); u != nil {
		images = u
	}
	var index application.BagIndexer
	if es := container.GetES(); es != nil {
		index = search.NewBagIndex(es, cfg.ESBagsIndex, logger)
	}
	var mail application.JobPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		mail = pub
	}

	bags := application.NewBagService(repos.Bags, repos.BagItems, repos.Profiles, repos.Visits, rdb, images, index, logger)
	accessors := application.NewAccessors(
		application.NewProfileService(repos.Profiles, logger),
		bags,
		application.NewPassportService(repos.Passports, container.GetAdviser(), logger),
		application.NewVisitService(repos.Visits, images, logger),
		application.NewFollowService(repos.Follows, repos.Bags, logger),
	)

	sessions := application.NewSessionService(repos.Users, repos.Profiles, container.GetJWT(), rdb, mail,
		container.GetSessionEvents(), logger, application.SessionConfig{
			AutoConfirm: cfg.AuthAutoConfirm,
			ConfirmURL:  cfg.ConfirmEmailURL,
			ConfirmTTL:  cfg.ConfirmTokenTTL,
			SessionTTL:  cfg.SessionTTL,
			Brand: templates.Brand{
				AppName:     cfg.AppName,
				CompanyName: cfg.CompanyName,
				SupportURL:  cfg.SupportURL,
			},
		})

	return Deps{
		Redis:        rdb,
		Logger:       logger,
		Sessions:     sessions,
		Accessors:    accessors,
		Catalog:      application.NewCatalogService(container.GetProductLookup(), catalog.SamplesByCategory, logger),
		Scans:        application.NewRecentScans(rdb, recentScansTTL, logger),
		Nav:          navigation.NewStore(rdb, cfg.NavStateTTL),
		Spaces:       workspace.NewManager(accessors, logger),
		CookieDomain: cfg.CookieDomain,
		CookieSecure: cfg.CookieSecure,
		DebugMetrics: cfg.DebugMetricsEnabled,
	}
}

// AddModules registers every HTTP module built from d.
func AddModules(r *Registry, d Deps) {
	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(d.Sessions, d.Nav, d.Spaces, d.Logger, d.CookieDomain, d.CookieSecure),
		d.Sessions, d.Redis))
	r.Add(modules.NewWorkspaceModule(handlers.NewWorkspaceHandler(d.Spaces, d.Nav, d.Logger), d.Sessions, d.Redis))
	r.Add(modules.NewBagModule(handlers.NewBagHandler(d.Spaces, d.Nav, d.Accessors, d.Logger), d.Sessions, d.Redis))
	r.Add(modules.NewPersonalModule(handlers.NewPersonalHandler(d.Spaces, d.Nav, d.Accessors, d.Logger), d.Sessions, d.Redis))
	r.Add(modules.NewFollowModule(handlers.NewFollowHandler(d.Spaces, d.Nav, d.Accessors, d.Logger), d.Sessions, d.Redis))
	r.Add(modules.NewCatalogModule(handlers.NewCatalogHandler(d.Spaces, d.Nav, d.Catalog, d.Scans, d.Logger), d.Sessions, d.Redis))
	if d.DebugMetrics {
		r.Add(modules.NewDebugModule(d.Redis))
	}
}

// InitModules initializes all application modules and registers them with the router registry.
// It returns the deps so the caller can attach background consumers (session events).
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) Deps {
	d := BuildDeps()
	AddModules(r, d)
	return d
}
