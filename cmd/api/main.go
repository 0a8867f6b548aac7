package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MikeMC777/markethub/internal/analytics"
	"github.com/MikeMC777/markethub/internal/cache"
	"github.com/MikeMC777/markethub/internal/cart"
	"github.com/MikeMC777/markethub/internal/catalog"
	"github.com/MikeMC777/markethub/internal/config"
	"github.com/MikeMC777/markethub/internal/db"
	"github.com/MikeMC777/markethub/internal/notify"
	"github.com/MikeMC777/markethub/internal/order"
	"github.com/MikeMC777/markethub/internal/payment"
	"github.com/MikeMC777/markethub/internal/review"
	"github.com/MikeMC777/markethub/internal/user"
	"github.com/MikeMC777/markethub/internal/voucher"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	if err := db.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres unreachable")
	}
	defer pool.Close()

	rcache := cache.New(ctx, cfg.RedisAddr)
	defer rcache.Close()

	users := user.NewPGRepo(pool)
	products := catalog.NewPGProductRepo(pool)
	shops := catalog.NewPGShopRepo(pool)
	categories := catalog.NewPGCategoryRepo(pool)
	catalogSvc := catalog.NewService(products, shops, categories)

	cartRepo := cart.NewPGRepo(pool)
	cartSvc := cart.NewService(cartRepo, products)

	voucherRepo := voucher.NewPGRepo(pool)
	voucherSvc := voucher.NewService(voucherRepo)

	notifier := notify.NewExt(cfg.MailerBaseURL, cfg.PusherBaseURL)
	orderRepo := order.NewPGRepo(pool)
	orderSvc := order.NewService(orderRepo, catalogSvc, voucherRepo, cartRepo, users, notifier)

	paymentRepo := payment.NewPGRepo(pool)
	paymentSvc := payment.NewService(
		paymentRepo, orderSvc,
		payment.NewMomoClient(cfg.Momo),
		payment.NewVNPayClient(cfg.VNPay),
		payment.NewPayOSClient(cfg.PayOS),
	)

	reviewSvc := review.NewService(review.NewPGRepo(pool), catalogSvc)
	statsSvc := analytics.NewService(analytics.NewPGRepo(pool), analytics.TieredPolicy{}, rcache)

	r := newRouter(deps{
		cfg:      cfg,
		users:    users,
		catalog:  catalogSvc,
		cart:     cartSvc,
		vouchers: voucherSvc,
		orders:   orderSvc,
		payments: paymentSvc,
		reviews:  reviewSvc,
		stats:    statsSvc,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
