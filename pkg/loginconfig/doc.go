// Package loginconfig supplies the SSO identity provider configuration.
//
// The configuration (provider base URL, client credentials, token and JWKS
// endpoint paths) can be loaded from environment variables, from a PostgreSQL
// system table, or held in memory for tests. All SSO services resolve the
// configuration per call through LoginConfigService, so configuration changes
// take effect without a restart.
//
// # Basic Usage
//
//	repo, err := loginconfig.NewEnvLoginConfigRepository()
//	service := loginconfig.NewLoginConfigService(repo)
//	config, err := service.GetConfig(ctx)
package loginconfig
