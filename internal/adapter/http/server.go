package adapthttp

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hydration/internal/app"
	"hydration/internal/domain"
)

// Services groups the application services the adapter drives.
type Services struct {
	Intake   *app.IntakeService
	History  *app.HistoryService
	Profile  *app.ProfileService
	Settings *app.SettingsService
	Auth     *app.AuthService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	intake   *app.IntakeService
	history  *app.HistoryService
	profile  *app.ProfileService
	settings *app.SettingsService
	authSvc  *app.AuthService

	oidcConfig  OIDCConfig
	validate    *Validator
	log         *slog.Logger
	webDir      string
	disableAuth bool
	localUser   *domain.User
}

// New creates a Server wired to the given application services. webDir may be
// empty when no frontend is served.
func New(svc Services, oidcCfg OIDCConfig, log *slog.Logger, webDir string) *Server {
	return &Server{
		intake:     svc.Intake,
		history:    svc.History,
		profile:    svc.Profile,
		settings:   svc.Settings,
		authSvc:    svc.Auth,
		oidcConfig: oidcCfg,
		validate:   NewValidator(),
		log:        log,
		webDir:     webDir,
		localUser:  &domain.User{ID: 1, Username: "local"},
	}
}

// WithoutAuth disables authentication; every request acts as the local user.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithLocalUser sets the user requests act as when authentication is disabled.
func (s *Server) WithLocalUser(u *domain.User) *Server {
	if u != nil {
		s.localUser = u
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/intake", s.handleIntakeRecord)
	protected.HandleFunc("/intake/today", s.handleIntakeToday)
	protected.HandleFunc("/intake/reset", s.handleIntakeReset)
	protected.HandleFunc("/intake/undo-last", s.handleIntakeUndoLast)
	protected.HandleFunc("/intake/stats", s.handleIntakeStats)

	protected.HandleFunc("/history", s.handleHistory)
	protected.HandleFunc("/history/daily", s.handleHistoryDaily)

	protected.HandleFunc("/profile", s.handleProfile)
	protected.HandleFunc("/profile/image", s.handleProfileImage)

	protected.HandleFunc("/settings", s.handleSettings)
	protected.HandleFunc("/auth/me", s.handleMe)

	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/metrics", promhttp.Handler())
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.loggingMiddleware(withNoCache(root))
}
