package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"airg/internal/auth"
	"airg/internal/bus"
	"airg/internal/http/handlers"
	"airg/internal/http/middleware"
	"airg/internal/models"
	"airg/internal/rbac"
)

// BasePath prefixes every API route.
const BasePath = "/v1"

// Deps are the collaborators the router wires into handlers. Idempotency
// and Uploads may be nil.
type Deps struct {
	DB          *gorm.DB
	Auth        *auth.Service
	Publisher   bus.Publisher
	Idempotency handlers.IdempotencyStore
	Uploads     handlers.UploadSigner
	Auditor     *middleware.Auditor
	Logger      zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestContext(d.Logger),
		d.Auditor.Handler(),
		gin.Recovery(),
		middleware.RequestLogger(),
	)

	r.GET("/health", handlers.Health())

	g := guard{checker: rbac.Checker{DB: d.DB}}
	byOrg := orgFromParam
	byProject := orgFromProject(d.DB)
	byTheme := orgFromRecord(d.DB, "themes")
	byExport := orgFromRecord(d.DB, "exports")

	v1 := r.Group(BasePath)

	// Public routes
	v1.POST("/auth/register", handlers.Register(d.Auth))
	v1.POST("/auth/login", handlers.Login(d.Auth))
	v1.POST("/auth/logout", handlers.Logout())

	api := v1.Group("", auth.JWT(d.Auth))
	{
		api.GET("/auth/me", handlers.Me(d.Auth))
		api.GET("/auth/organizations", handlers.Organizations(d.Auth))
		api.POST("/auth/password", handlers.ChangePassword(d.Auth))

		// Organizations
		orgs := api.Group("/organizations/:orgId")
		orgs.GET("/projects", g.require(byOrg, rbac.RoleViewer), handlers.ListProjects(d.DB))
		orgs.POST("/projects", g.require(byOrg, rbac.RoleAdmin), handlers.CreateProject(d.DB))
		orgs.GET("/members", g.require(byOrg, rbac.RoleViewer), handlers.ListMembers(d.DB))
		orgs.POST("/members", g.require(byOrg, rbac.RoleAdmin), handlers.InviteMember(d.DB))
		orgs.DELETE("/members/:userId", g.require(byOrg, rbac.RoleAdmin), handlers.DeactivateMember(d.DB))
		orgs.GET("/audit", g.require(byOrg, rbac.RoleAdmin), handlers.ListAudit(d.DB))

		// Documents
		api.POST("/documents", g.require(byProject, rbac.RoleMember), handlers.CreateDocument(d.DB))
		api.GET("/documents", g.require(byProject, rbac.RoleViewer), handlers.ListDocuments(d.DB))

		// Themes
		api.GET("/themes", g.require(byProject, rbac.RoleViewer), handlers.ListThemes(d.DB))
		api.POST("/themes/rebuild", g.require(byProject, rbac.RoleMember), handlers.RebuildThemes(d.Publisher))
		api.POST("/themes/bundles/citations", g.require(byProject, rbac.RoleMember), handlers.CreateBundle(d.DB, d.Publisher))
		api.GET("/themes/:id", g.require(byTheme, rbac.RoleViewer), handlers.ThemeDetails(d.DB))
		api.POST("/themes/:id/summarize", g.require(byTheme, rbac.RoleMember), handlers.SummarizeTheme(d.DB, d.Publisher))

		// Exports
		api.POST("/exports/review", g.require(byProject, rbac.RoleMember), handlers.CreateExport(d.Publisher, d.Idempotency, models.ExportDocx))
		api.POST("/exports/json", g.require(byProject, rbac.RoleMember), handlers.CreateExport(d.Publisher, d.Idempotency, models.ExportJSON))
		api.GET("/exports", g.require(byProject, rbac.RoleViewer), handlers.ListExports(d.DB))
		api.GET("/exports/:id", g.require(byExport, rbac.RoleViewer), handlers.ExportDetails(d.DB))

		// Uploads
		api.POST("/uploads/sign", g.require(byProject, rbac.RoleMember), handlers.SignUpload(d.Uploads))
	}

	return r
}
