//регистрация и аутентификация пользователей;
//хранение записей памяти и их синхронизация с векторным индексом;
//семантический поиск по памяти пользователя;
//очистка истёкших записей.

//GET  /health, /health/detailed, /health/ping, /   # (публичный)
//POST /api/v1/auth/register                       # Регистрация (публичный)
//POST /api/v1/auth/login                          # Логин (публичный)
//GET  /api/v1/auth/me, /api/v1/users/me           # Текущий пользователь (auth)
//PUT  /api/v1/users/me                            # Обновить профиль (auth)
//GET  /api/v1/users/{id}, PUT /api/v1/users/{id}  # Пользователь (superuser)
//POST /api/v1/memories                            # Создать запись (auth)
//GET  /api/v1/memories/search                     # Поиск (auth)
//GET|PUT|DELETE /api/v1/memories/{id}             # Запись (auth, владелец)
//POST /api/v1/memories/cleanup                    # Очистка (superuser)

package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/api/http/apierr"
	healthAPI "memvoice/internal/app/server/api/http/health"
	memoryAPI "memvoice/internal/app/server/api/http/memory"
	"memvoice/internal/app/server/api/http/middleware"
	"memvoice/internal/app/server/api/http/middleware/auth"
	"memvoice/internal/app/server/api/http/middleware/logger"
	"memvoice/internal/app/server/api/http/middleware/recoverer"
	"memvoice/internal/app/server/api/http/middleware/requestid"
	userAPI "memvoice/internal/app/server/api/http/user"
	"memvoice/internal/app/server/config"
	"memvoice/internal/app/server/security"
	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
)

const (
	docsPath    = "/api/v1/docs"
	openAPIPath = "/api/v1/openapi"
)

// Services - зависимости HTTP слоя
type Services struct {
	Users    user.Servicer
	Memories memory.Servicer
	Tokens   *security.Tokens
	DB       healthAPI.Pinger
}

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Memory *memoryAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(cfg *config.Config, svc Services, log *slog.Logger) *chi.Mux {
	// единый формат ошибок для всех операций
	huma.NewError = apierr.New

	mux := chi.NewMux()
	mux.Use(requestid.Middleware)
	mux.Use(recoverer.Middleware(log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestid.Header},
		AllowCredentials: true,
	}))
	mux.NotFound(apierr.NotFound)
	mux.MethodNotAllowed(apierr.MethodNotAllowed)

	humaConfig := huma.DefaultConfig(cfg.ProjectName, cfg.Version)
	humaConfig.DocsPath = docsPath
	humaConfig.OpenAPIPath = openAPIPath
	// request_id проставляется до остальных трансформеров, пока тело ещё *apierr.Error
	humaConfig.Transformers = append([]huma.Transformer{apierr.Transformer}, humaConfig.Transformers...)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(API, cfg, svc, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Memory.SetupRoutes(API)

	return mux
}

func handlers(API huma.API, cfg *config.Config, svc Services, log *slog.Logger) *Handlers {
	authMW := auth.New(svc.Tokens, svc.Users, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	var chains middleware.Chains

	middlewares.Add(loggerMW.Middleware())
	chains.Public = middlewares.GetAllAndClear()

	middlewares.Add(loggerMW.Middleware(), authMW.Active(API))
	chains.Active = middlewares.GetAllAndClear()

	middlewares.Add(loggerMW.Middleware(), authMW.Superuser(API))
	chains.Superuser = middlewares.GetAllAndClear()

	var missing []string
	if cfg.Auth.GeneratedSecret {
		missing = append(missing, "JWT_SECRET not configured")
	}

	healthHandler := healthAPI.NewHandler(svc.DB, healthAPI.Info{
		Service:     cfg.ProjectName,
		Version:     cfg.Version,
		Environment: cfg.Env,
		DocsURL:     docsPath,
		Missing:     missing,
	}, log, chains.Public)

	userHandler := userAPI.NewHandler(svc.Users, svc.Tokens, log, chains)
	memoryHandler := memoryAPI.NewHandler(svc.Memories, log, chains)

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Memory: memoryHandler,
	}
}
