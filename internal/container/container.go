package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/config"
	"github.com/oksasatya/cosmebag/internal/application"
	repo "github.com/oksasatya/cosmebag/internal/domain/repository"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

// Repositories is the data gateway selected at startup (Postgres or in-memory).
type Repositories struct {
	Users     repo.UserRepository
	Profiles  repo.ProfileRepository
	Bags      repo.BagRepository
	BagItems  repo.BagItemRepository
	Passports repo.PassportRepository
	Visits    repo.VisitRepository
	Follows   repo.FollowRepository
}

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	repos         Repositories
	sessionEvents *application.SessionEvents
	productLookup application.ProductLookup
	adviser       application.Adviser
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetRepositories(r Repositories) { repos = r }
func GetRepositories() Repositories  { return repos }

func SetSessionEvents(e *application.SessionEvents) { sessionEvents = e }
func GetSessionEvents() *application.SessionEvents  { return sessionEvents }

func SetProductLookup(l application.ProductLookup) { productLookup = l }
func GetProductLookup() application.ProductLookup  { return productLookup }

func SetAdviser(a application.Adviser) { adviser = a }
func GetAdviser() application.Adviser  { return adviser }
