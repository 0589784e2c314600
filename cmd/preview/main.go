package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/cart"
	"github.com/matst80/slask-theme/pkg/common"
	"github.com/matst80/slask-theme/pkg/config"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/facet"
	"github.com/matst80/slask-theme/pkg/messaging"
	"github.com/matst80/slask-theme/pkg/money"
	"github.com/matst80/slask-theme/pkg/storage"
	"github.com/matst80/slask-theme/pkg/theme"
)

var pageFile = flag.String("page", "", "HTML page to boot, stdin when empty")
var pageURL = flag.String("url", "http://localhost/", "address of the page, its query string seeds the filters")
var scriptFile = flag.String("script", "", "JSON list of events to play after boot")
var outFile = flag.String("out", "", "write the patched HTML here instead of stdout")

// options is everything a preview run needs besides the page itself.
type options struct {
	URL       string
	Steps     []Step
	Cart      cart.Backend
	Store     storage.Store
	Transport events.Transport
	Money     money.Formatter
	Threshold cart.Threshold
	Log       *zap.Logger
}

// result of one preview run.
type result struct {
	HTML     string
	Location string
	Played   int
}

func run(ctx context.Context, page io.Reader, opts options) (*result, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	doc, err := dom.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	location, err := facet.NewHistory(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	rt, err := theme.Boot(ctx, doc, theme.Deps{
		Cart:      opts.Cart,
		Store:     opts.Store,
		Transport: opts.Transport,
		Location:  location,
		Money:     opts.Money,
		Threshold: opts.Threshold,
		Log:       opts.Log,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = rt.Close() }()

	played := play(ctx, rt, opts.Steps, opts.Log)
	var markup string
	rt.Doc.Update(func() { markup, err = rt.Doc.HTML() })
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return &result{HTML: markup, Location: location.String(), Played: played}, nil
}

// newStore picks where wishlist and preferences live: redis, a state
// folder, or memory for a single run.
func newStore(ctx context.Context, cfg *config.Preview) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	switch {
	case cfg.Redis.Enabled():
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return storage.NewRedisStore(rdb, "theme:"+cfg.Profile), rdb.Close, nil
	case cfg.StateDir != "":
		return storage.NewDiskStorage(cfg.Profile, cfg.StateDir), noop, nil
	default:
		return storage.NewMemoryStore(), noop, nil
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadPreview()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := common.NewLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	steps, err := loadScript(*scriptFile)
	if err != nil {
		logger.Fatal("load script", zap.Error(err))
	}
	store, closeStore, err := newStore(context.Background(), cfg)
	if err != nil {
		logger.Fatal("state store", zap.Error(err))
	}
	defer func() { _ = closeStore() }()
	opts := options{
		URL:   *pageURL,
		Steps: steps,
		Store: store,
		Money: money.Formatter{Template: cfg.MoneyFormat, Symbol: cfg.MoneySymbol},
		Threshold: cart.Threshold{
			Amount:  cfg.FreeShipping,
			Message: cfg.ThresholdText,
		},
		Log: logger,
	}
	if cfg.CartURL != "" {
		client, err := cart.NewClient(cfg.CartURL,
			cart.WithHTTPClient(&http.Client{Timeout: cfg.RequestTime}),
			cart.WithClientLogger(logger.Named("cart")))
		if err != nil {
			logger.Fatal("cart client", zap.Error(err))
		}
		opts.Cart = client
	}
	if cfg.Rabbit.Enabled() {
		transport, err := messaging.Connect(messaging.RabbitConfig{
			Url:    cfg.Rabbit.Url,
			VHost:  cfg.Rabbit.VHost,
			Prefix: cfg.Rabbit.Prefix,
		}, logger.Named("rabbit"))
		if err != nil {
			logger.Fatal("rabbit connect", zap.Error(err))
		}
		defer func() { _ = transport.Close() }()
		opts.Transport = transport
	}

	var page io.Reader = os.Stdin
	if *pageFile != "" {
		f, err := os.Open(*pageFile)
		if err != nil {
			logger.Fatal("open page", zap.Error(err))
		}
		defer f.Close()
		page = f
	}

	res, err := run(context.Background(), page, opts)
	if err != nil {
		logger.Fatal("preview", zap.Error(err))
	}
	logger.Info("preview done", zap.String("location", res.Location), zap.Int("steps", res.Played))

	out := os.Stdout
	if *outFile != "" {
		if out, err = os.Create(*outFile); err != nil {
			logger.Fatal("create output", zap.Error(err))
		}
		defer out.Close()
	}
	if _, err := io.WriteString(out, res.HTML); err != nil {
		logger.Fatal("write output", zap.Error(err))
	}
}
