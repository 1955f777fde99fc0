package server

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/memstore"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/lexicon"
	assistantports "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/ports"
	assistantpersistence "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/infrastructure/persistence"
	assistantservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/services"
	catalogports "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/ports"
	catalogpersistence "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/infrastructure/persistence"
	catalogservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/services"
	salesports "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/ports"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	salespersistence "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/infrastructure/persistence"
	salesservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/services"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/authz"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/money"
)

// AssistantOptions tunes the query assistant; zero values take defaults.
type AssistantOptions struct {
	Lexicon         *lexicon.Lexicon
	Money           money.Formatter
	LowStockDefault int
	ListLimit       int
	OrdersListLimit int
}

type HandlerOptions struct {
	AllowlistPath string
	Logger        *slog.Logger
	Metrics       *Metrics
	Tokens        TokenConfig
	Authorizer    *authz.Authorizer

	// Pool selects the Postgres stores. Without it every store shares
	// one in-memory database.
	Pool        *pgxpool.Pool
	OrderTopic  string
	Idempotency salesports.IdempotencyStore
	Checks      map[string]HealthCheck

	ClientStore  catalogports.ClientStore
	ProductStore catalogports.ProductStore
	OrderStore   salesports.OrderStore
	Reader       assistantports.Reader

	Assistant AssistantOptions
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := opts.AllowlistPath
	if allowlistPath == "" {
		allowlistPath = os.Getenv("ALLOWLIST_PATH")
	}
	if allowlistPath == "" {
		p, err := findUpwards("config/routing/allowlist.yaml")
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}
	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}
	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	if opts.Tokens.Secret == "" {
		return nil, errors.New("server: missing token secret")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	authorizer := opts.Authorizer
	if authorizer == nil {
		authorizer, err = LoadAuthorizer("", "", authz.ModeEnforce)
		if err != nil {
			return nil, err
		}
	}

	wireStores(&opts)

	catalogSvc := catalogservices.NewCatalogService(opts.ClientStore, opts.ProductStore)

	ordersSvc := salesservices.NewOrdersService(opts.OrderStore)
	ordersSvc.Idempotency = opts.Idempotency
	ordersSvc.Logger = logger.With("component", "sales")
	ordersSvc.Observe = metrics.ObserveOrder

	chatSvc, err := newChatService(opts.Reader, opts.Assistant, authorizer)
	if err != nil {
		return nil, err
	}
	chatSvc.Logger = logger.With("component", "assistant")

	router := routing.NewRouter(classifier).WithLogger(logger)

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", handleHealth(opts.Checks))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/metrics", metrics.Handler())

	clients := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleClientsAPI(w, r, catalogSvc)
	})
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/catalog/api/clients", clients)
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/catalog/api/clients", clients)

	products := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleProductsAPI(w, r, catalogSvc)
	})
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/catalog/api/products", products)
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/catalog/api/products", products)

	orders := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrdersAPI(w, r, ordersSvc)
	})
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/sales/api/orders", orders)
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/sales/api/orders", orders)
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/sales/api/orders/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrderGetAPI(w, r, ordersSvc)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/sales/api/orders/{id}:complete", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrderTransitionAPI(w, r, ordersSvc, salestypes.StatusCompleted)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/sales/api/orders/{id}:cancel", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrderTransitionAPI(w, r, ordersSvc, salestypes.StatusCancelled)
	}))

	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/assistant/api/chat", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleAssistantChatAPI(w, r, chatSvc)
	}))

	var h http.Handler = router
	h = withAuthz(classifier, authorizer, h)
	h = withTenantGuard(classifier, h)
	h = withIdentity(classifier, opts.Tokens, h)
	h = withMetrics(metrics, router, h)
	h = withRequestLogging(logger, h)
	return h, nil
}

// wireStores fills every nil store from Pool, or from one shared
// in-memory database when there is no pool.
func wireStores(opts *HandlerOptions) {
	if opts.Pool != nil {
		if opts.ClientStore == nil {
			opts.ClientStore = catalogpersistence.NewClientPGStore(opts.Pool)
		}
		if opts.ProductStore == nil {
			opts.ProductStore = catalogpersistence.NewProductPGStore(opts.Pool)
		}
		if opts.OrderStore == nil {
			opts.OrderStore = salespersistence.NewOrderPGStore(opts.Pool, opts.OrderTopic)
		}
		if opts.Reader == nil {
			opts.Reader = assistantpersistence.NewReaderPGStore(opts.Pool)
		}
		return
	}

	db := memstore.New()
	catalog := catalogpersistence.NewMemoryStore(db)
	if opts.ClientStore == nil {
		opts.ClientStore = catalog
	}
	if opts.ProductStore == nil {
		opts.ProductStore = catalog
	}
	if opts.OrderStore == nil {
		opts.OrderStore = salespersistence.NewOrderMemoryStore(db)
	}
	if opts.Reader == nil {
		opts.Reader = assistantpersistence.NewReaderMemoryStore(db)
	}
}

func newChatService(reader assistantports.Reader, opts AssistantOptions, az assistantservices.Authorizer) (*assistantservices.ChatService, error) {
	lx := opts.Lexicon
	if lx == nil {
		var err error
		if lx, err = lexicon.Default(); err != nil {
			return nil, err
		}
	}
	formatter := opts.Money
	if formatter.IsZero() {
		f, err := money.NewFormatter("pt-BR", "BRL")
		if err != nil {
			return nil, err
		}
		formatter = f
	}

	composer := assistantservices.NewComposer(reader, formatter)
	if opts.ListLimit > 0 {
		composer.ListLimit = opts.ListLimit
	}
	if opts.OrdersListLimit > 0 {
		composer.OrdersListLimit = opts.OrdersListLimit
	}
	return assistantservices.NewChatService(assistantservices.NewExtractor(lx, opts.LowStockDefault), composer, az), nil
}
