package api

// Config holds the operational settings of the router.
type Config struct {
	AdminToken string `env:"ADMIN_TOKEN"`
}
