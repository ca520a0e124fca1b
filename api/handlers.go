package api

import (
	"time"

	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/services"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Users     *services.UserService
	Tokens    services.TokenIssuer
	Access    *services.AccessService
	Blog      *services.BlogService
	Comments  *services.CommentService
	Settings  services.Settings
	Uploads   *services.FileUploadService
	Recaptcha *services.RecaptchaVerifier
	Throttle  services.CommentThrottle
	// Akismet verifies the stored key when its settings are viewed. Optional.
	Akismet services.KeyVerifier
}

// siteOptions are the router settings the handlers need.
type siteOptions struct {
	baseURL  string
	pageSize int
	proxies  trustedProxies
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, svc Services, site siteOptions, startupTime time.Time) *routeHandlers {
	if svc.Throttle == nil {
		svc.Throttle = services.NoThrottle{}
	}

	return &routeHandlers{
		healthHandler:   newHealthHandler(database, startupTime),
		authHandler:     newAuthHandler(svc.Users, svc.Tokens),
		blogHandler:     newBlogHandler(svc.Blog, svc.Comments, svc.Users, svc.Settings.System, svc.Recaptcha, svc.Throttle, site),
		blogPostHandler: newBlogPostHandler(svc.Blog, svc.Users, svc.Uploads, svc.Settings.System, site),
		commentHandler:  newCommentHandler(svc.Comments, svc.Users),
		configHandler:   newConfigHandler(svc.Settings, svc.Users, svc.Akismet),
		assetHandler:    newAssetHandler(svc.Uploads, svc.Users),
		aclHandler:      newACLHandler(svc.Access, svc.Users),
	}
}
