package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/susu3304/cashubot/internal/commands"
	"github.com/susu3304/cashubot/internal/config"
	clog "github.com/susu3304/cashubot/internal/log"
)

const discordAPI = "https://discord.com/api"

type API struct {
	router      *mux.Router
	wallet      commands.Wallet
	config      *config.Config
	oauthConfig *oauth2.Config
	discordAPI  string
	jwtSecret   []byte
	logger      zerolog.Logger
}

func New(cfg *config.Config, w commands.Wallet) *API {
	return newAPI(cfg, w, discordAPI)
}

func newAPI(cfg *config.Config, w commands.Wallet, discordBase string) *API {
	api := &API{
		router:     mux.NewRouter(),
		wallet:     w,
		config:     cfg,
		discordAPI: discordBase,
		jwtSecret:  []byte(cfg.JWTSecret),
		logger:     clog.API,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  discordBase + "/oauth2/authorize",
				TokenURL: discordBase + "/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Without Discord login there is no way to mint a session, so the wallet
	// routes are not mounted at all.
	if !a.config.OAuthEnabled() || len(a.jwtSecret) == 0 {
		return
	}

	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/wallet", a.handleWallet).Methods("GET")
	protected.HandleFunc("/wallet/tokens", a.handleReceive).Methods("POST")
	protected.HandleFunc("/wallet/send", a.handleSend).Methods("POST")
	protected.HandleFunc("/wallet/payout", a.handlePayout).Methods("PUT")
}

// Handler returns the router wrapped with CORS. Browsers may call the API only
// from the web UI origin derived from the OAuth redirect.
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{a.config.WebUIBaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

func (a *API) Start() error {
	a.logger.Info().Str("bind", a.config.WebBind).Msg("API server listening")
	return http.ListenAndServe(a.config.WebBind, a.Handler())
}
