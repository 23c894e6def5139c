package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Mail     MailConfig
	Commerce CommerceConfig
	Tenancy  TenancyConfig
	Cache    CacheConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión a Redis (cache de resolución de tenants).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StripeConfig credenciales del proveedor de pagos.
// Prices mapea plan -> price id de la suscripción.
type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PortalReturnURL string
	Prices          map[string]string
}

// MailConfig API HTTP de correo transaccional.
type MailConfig struct {
	APIURL string
	APIKey string
	From   string
}

// CommerceConfig backend de comercio al que se reenvían las rutas de administración.
type CommerceConfig struct {
	URL   string
	Token string
}

// TenancyConfig parámetros del pipeline de resolución de tenants.
type TenancyConfig struct {
	BaseDomain    string   // dominio raíz: <subdominio>.<BaseDomain>
	AdminPrefix   string   // prefijo de rutas que exigen contexto de tenant
	ResolverOrder []string // orden de estrategias de resolución
}

// CacheConfig TTL de la cache de tenants.
type CacheConfig struct {
	TenantTTL time.Duration
}

// DefaultResolverOrder prioridad por defecto de las estrategias de resolución.
var DefaultResolverOrder = []string{"publishable_key", "admin_user", "header", "host"}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, STRIPE_SECRET_KEY, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "tenancy-gateway"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "tenancy"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "tenancy-gateway"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Stripe: StripeConfig{
			SecretKey:       getString(v, "STRIPE_SECRET_KEY", ""),
			WebhookSecret:   getString(v, "STRIPE_WEBHOOK_SECRET", ""),
			PortalReturnURL: getString(v, "STRIPE_PORTAL_RETURN_URL", ""),
			Prices: map[string]string{
				"starter":    getString(v, "STRIPE_PRICE_STARTER", ""),
				"pro":        getString(v, "STRIPE_PRICE_PRO", ""),
				"enterprise": getString(v, "STRIPE_PRICE_ENTERPRISE", ""),
			},
		},
		Mail: MailConfig{
			APIURL: getString(v, "MAIL_API_URL", "https://api.resend.com"),
			APIKey: getString(v, "MAIL_API_KEY", ""),
			From:   getString(v, "MAIL_FROM", "no-reply@localhost"),
		},
		Commerce: CommerceConfig{
			URL:   getString(v, "COMMERCE_URL", "http://localhost:9000"),
			Token: getString(v, "COMMERCE_TOKEN", ""),
		},
		Tenancy: TenancyConfig{
			BaseDomain:    getString(v, "TENANCY_BASE_DOMAIN", "localhost"),
			AdminPrefix:   getString(v, "TENANCY_ADMIN_PREFIX", "/admin"),
			ResolverOrder: getList(v, "TENANCY_RESOLVER_ORDER", DefaultResolverOrder),
		},
		Cache: CacheConfig{
			TenantTTL: time.Duration(getInt(v, "CACHE_TENANT_TTL_MINUTES", 30)) * time.Minute,
		},
	}

	if cfg.App.Env == "production" && cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("config: STRIPE_WEBHOOK_SECRET es obligatorio en producción")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getList lee una lista separada por comas; los espacios se descartan.
func getList(v *viper.Viper, key string, def []string) []string {
	if !v.IsSet(key) {
		return def
	}
	var out []string
	for _, p := range strings.Split(v.GetString(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
