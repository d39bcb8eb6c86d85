package handlers

import "net/http"

// Handlers bundles every handler the router serves
type Handlers struct {
	Auth   *AuthHandler
	Text   *TextHandler
	Study  *StudyHandler
	Team   *TeamHandler
	Admin  *AdminHandler
	Health *HealthHandler
}

// NewRouter registers all routes. authLimit guards the credential endpoints.
func NewRouter(m *Middleware, authLimit *Middleware, h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health.Healthz)

	mux.HandleFunc("POST /api/register", authLimit.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/login", authLimit.RateLimit(h.Auth.Login))
	mux.HandleFunc("POST /api/logout", m.RequireAuth(m.CSRFProtect(h.Auth.Logout)))
	mux.HandleFunc("GET /api/me", m.RequireAuth(h.Auth.Me))

	mux.HandleFunc("GET /api/texts", m.RequireAuth(h.Text.List))
	mux.HandleFunc("POST /api/texts", m.RequireAuth(m.CSRFProtect(m.RateLimit(h.Text.Add))))
	mux.HandleFunc("DELETE /api/texts", m.RequireAuth(m.CSRFProtect(h.Text.Delete)))

	mux.HandleFunc("POST /api/study/select", m.RequireAuth(m.CSRFProtect(h.Study.Select)))
	mux.HandleFunc("GET /api/study", m.RequireAuth(h.Study.Current))
	mux.HandleFunc("POST /api/study/choose", m.RequireAuth(m.CSRFProtect(h.Study.Choose)))
	mux.HandleFunc("POST /api/study/undo", m.RequireAuth(m.CSRFProtect(h.Study.Undo)))
	mux.HandleFunc("POST /api/study/next", m.RequireAuth(m.CSRFProtect(h.Study.Next)))
	mux.HandleFunc("POST /api/study/previous", m.RequireAuth(m.CSRFProtect(h.Study.Previous)))
	mux.HandleFunc("POST /api/study/mode", m.RequireAuth(m.CSRFProtect(h.Study.Mode)))

	mux.HandleFunc("GET /api/leaderboard", m.RequireAuth(h.Team.Leaderboard))
	mux.HandleFunc("POST /api/teams", m.RequireAuth(m.CSRFProtect(h.Team.Create)))
	mux.HandleFunc("POST /api/teams/join", m.RequireAuth(m.CSRFProtect(h.Team.Join)))
	mux.HandleFunc("POST /api/teams/leave", m.RequireAuth(m.CSRFProtect(h.Team.Leave)))
	mux.HandleFunc("GET /api/teams/{id}", m.RequireAuth(h.Team.Get))

	mux.HandleFunc("GET /api/admin/users", m.RequireAdmin(h.Admin.ListUsers))
	mux.HandleFunc("GET /api/admin/backup", m.RequireAdmin(h.Admin.ExportBackup))
	mux.HandleFunc("DELETE /api/admin/texts", m.RequireAdmin(m.CSRFProtect(h.Admin.DeletePublicText)))
	mux.HandleFunc("DELETE /api/admin/teams/{id}", m.RequireAdmin(m.CSRFProtect(h.Admin.DeleteTeam)))

	return mux
}
