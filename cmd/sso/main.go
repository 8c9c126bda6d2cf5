package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-sso/pkg/externaltoken"
	"github.com/tendant/simple-sso/pkg/idtoken"
	"github.com/tendant/simple-sso/pkg/jwks"
	"github.com/tendant/simple-sso/pkg/loginconfig"
	"github.com/tendant/simple-sso/pkg/ssouser"
	ssoapi "github.com/tendant/simple-sso/pkg/ssouser/api"
)

type SsoDbConfig struct {
	Host     string `env:"SSO_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"SSO_PG_PORT" env-default:"5432"`
	Database string `env:"SSO_PG_DATABASE" env-default:"sso_db"`
	User     string `env:"SSO_PG_USER" env-default:"sso"`
	Password string `env:"SSO_PG_PASSWORD" env-default:"pwd"`
}

type JwtConfig struct {
	JwtSecret string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
}

type Config struct {
	SsoDbConfig SsoDbConfig
	AppConfig   app.AppConfig
	JwtConfig   JwtConfig
}

func main() {

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	config := Config{}
	cleanenv.ReadEnv(&config)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	var dbConfig dbutils.DbConfig
	copier.Copy(&dbConfig, &config.SsoDbConfig)
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}

	configService := loginConfigService(pool)

	keyCache, err := jwks.NewPostgresKeyCache(pool)
	if err != nil {
		slog.Error("Failed creating key cache", "err", err)
		os.Exit(-1)
	}
	keyLoader := jwks.NewPublicKeyLoader(configService, keyCache)
	parser := idtoken.NewParser(configService, keyLoader)

	tokenService := externaltoken.NewExternalTokenService(configService)

	oauthUserRepo, err := ssouser.NewPostgresOAuthUserRepository(pool)
	if err != nil {
		slog.Error("Failed creating oauth user repository", "err", err)
		os.Exit(-1)
	}
	userRepo, err := ssouser.NewPostgresUserRepository(pool)
	if err != nil {
		slog.Error("Failed creating user repository", "err", err)
		os.Exit(-1)
	}

	userService := ssouser.NewUserService(oauthUserRepo, userRepo, tokenService, parser)
	ssoHandle := ssoapi.NewHandler(tokenService, userService)

	ssoHandle.RegisterRoutes(server.R)

	tokenAuth := jwtauth.New("HS256", []byte(config.JwtConfig.JwtSecret), nil)

	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		ssoHandle.RegisterProtectedRoutes(r)
	})

	server.Run()

}

// loginConfigService prefers environment configuration and falls back to the
// sso_login_config table when SSO_BASE_URL is not set.
func loginConfigService(pool *pgxpool.Pool) *loginconfig.LoginConfigService {
	envRepo, err := loginconfig.NewEnvLoginConfigRepository()
	if err != nil {
		slog.Error("Failed reading SSO configuration from environment", "err", err)
		os.Exit(-1)
	}

	if _, err := envRepo.GetLoginConfig(context.Background()); err == nil {
		slog.Info("Using SSO configuration from environment")
		return loginconfig.NewLoginConfigService(envRepo)
	} else if !errors.Is(err, loginconfig.ErrLoginConfigurationNotFound) {
		slog.Error("Failed loading SSO configuration", "err", err)
		os.Exit(-1)
	}

	pgRepo, err := loginconfig.NewPostgresLoginConfigRepository(pool)
	if err != nil {
		slog.Error("Failed creating login config repository", "err", err)
		os.Exit(-1)
	}

	slog.Info("Using SSO configuration from database")
	return loginconfig.NewLoginConfigService(pgRepo)
}
