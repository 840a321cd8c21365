package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/config"
	"github.com/oksasatya/cosmebag/internal/application"
	"github.com/oksasatya/cosmebag/internal/domain/entity"
	"github.com/oksasatya/cosmebag/internal/infrastructure/catalog"
	pginfra "github.com/oksasatya/cosmebag/internal/infrastructure/postgres"
	"github.com/oksasatya/cosmebag/pkg/apperrors"
	"github.com/oksasatya/cosmebag/pkg/helpers"
)

const demoPassword = "password123"

type demoUser struct {
	email, username, displayName string
}

var (
	owner  = demoUser{email: "demo@cosmebag.app", username: "demo", displayName: "Демо"}
	friend = demoUser{email: "friend@cosmebag.app", username: "friend", displayName: "Подруга"}
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:             cfg.PostgresDSN(),
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	users := pginfra.NewUserRepository(pool)
	profiles := pginfra.NewProfileRepository(pool)
	bagsRepo := pginfra.NewBagRepository(pool)
	visitsRepo := pginfra.NewVisitRepository(pool)

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	sessions := application.NewSessionService(users, profiles, jwt, rdb, nil, nil, logger,
		application.SessionConfig{AutoConfirm: true})
	bags := application.NewBagService(bagsRepo, pginfra.NewBagItemRepository(pool), profiles, visitsRepo, rdb, nil, nil, logger)
	passports := application.NewPassportService(pginfra.NewPassportRepository(pool), nil, logger)
	visits := application.NewVisitService(visitsRepo, nil, logger)
	follows := application.NewFollowService(pginfra.NewFollowRepository(pool), bagsRepo, logger)

	ownerID := mustUser(ctx, sessions, owner, logger)
	friendID := mustUser(ctx, sessions, friend, logger)

	bag, err := bags.FetchBag(ctx, ownerID)
	if err != nil {
		log.Fatalf("failed to fetch bag: %v", err)
	}
	name, emoji := "Косметичка Демо", "💄"
	if _, err := bags.UpdateBag(ctx, ownerID, entity.BagPatch{Name: &name, Emoji: &emoji}); err != nil {
		log.Fatalf("failed to update bag: %v", err)
	}

	samples := catalog.Samples()
	for i, p := range samples[:6] {
		in := application.AddItemInput{ProductID: p.Barcode, Product: p.Snapshot()}
		if i%3 == 2 {
			_, err = bags.AddToWishlist(ctx, ownerID, in)
		} else {
			_, err = bags.AddToBag(ctx, ownerID, in)
		}
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyOwned) {
			log.Fatalf("failed to add %s: %v", p.Barcode, err)
		}
	}

	skin := entity.SkinCombination
	if _, err := passports.Save(ctx, ownerID, entity.PassportPatch{
		SkinType:     &skin,
		SkinConcerns: []string{"расширенные поры", "обезвоженность"},
		Allergies:    []string{"ланолин"},
	}); err != nil {
		log.Fatalf("failed to save passport: %v", err)
	}

	existing, err := visits.List(ctx, ownerID)
	if err != nil {
		log.Fatalf("failed to list visits: %v", err)
	}
	if len(existing) == 0 {
		for _, in := range []application.VisitInput{
			{VisitDate: time.Now().AddDate(0, -2, 0), DoctorName: "Иванова А.", ClinicName: "Клиника Эстетики", Procedures: []string{"пилинг"}},
			{VisitDate: time.Now().AddDate(0, 0, -10), DoctorName: "Иванова А.", ClinicName: "Клиника Эстетики", Procedures: []string{"биоревитализация"}, Recommendations: "SPF 50 ежедневно"},
		} {
			if _, err := visits.Add(ctx, ownerID, in); err != nil {
				log.Fatalf("failed to add visit: %v", err)
			}
		}
	}

	if err := follows.Follow(ctx, friendID, application.FollowTarget{BagID: bag.ID, OwnerUserID: ownerID}); err != nil {
		log.Fatalf("failed to follow: %v", err)
	}

	fmt.Printf("seeded %s / %s (bag share token %s)\n", owner.email, demoPassword, bag.ShareToken)
	fmt.Printf("seeded %s / %s following the demo bag\n", friend.email, demoPassword)
}

// mustUser signs the user up, or signs in when the account already exists.
func mustUser(ctx context.Context, sessions *application.SessionService, u demoUser, logger *logrus.Logger) string {
	res, err := sessions.SignUp(ctx, application.SignUpInput{
		Email:           u.email,
		Password:        demoPassword,
		ConfirmPassword: demoPassword,
		DisplayName:     u.displayName,
		Username:        u.username,
	})
	if err == nil {
		return res.User.ID
	}
	if !errors.Is(err, apperrors.ErrConflict) {
		log.Fatalf("failed to seed %s: %v", u.email, err)
	}
	sess, err := sessions.SignIn(ctx, u.email, demoPassword)
	if err != nil {
		log.Fatalf("failed to sign in %s: %v", u.email, err)
	}
	logger.WithField("email", u.email).Info("user already seeded")
	return sess.UserID
}
