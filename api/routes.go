package api

import (
	"github.com/go-chi/chi/v5"
)

// setupPublicRoutes sets up the routes anyone may call
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)
		r.Use(authMiddleware.identify)

		r.Get("/healthz", handlers.healthHandler.healthz())
		r.Post("/auth/login", handlers.authHandler.login())

		// Blog endpoints
		r.Get("/blog", handlers.blogHandler.listPosts())
		r.Get("/blog/{year}/{month}/{slug}", handlers.blogHandler.getPost())
		r.Post("/blog/{year}/{month}/{slug}/comment", handlers.blogHandler.addComment())

		r.Get("/assets/*", handlers.assetHandler.serveAsset())
	})
}

// setupAdminRoutes sets up the routes that need an access token
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware.authenticate)
		r.Use(ColoredHTTPLoggingMiddleware)

		// Settings endpoints
		r.Get("/config/{name}", handlers.configHandler.getConfig())
		r.Post("/config/system", handlers.configHandler.updateSystem())
		r.Post("/config/email", handlers.configHandler.updateEmail())
		r.Post("/config/recaptcha", handlers.configHandler.updateRecaptcha())
		r.Post("/config/akismet", handlers.configHandler.updateAkismet())

		// Blog Post Handler endpoints
		r.Get("/posts", handlers.blogPostHandler.getAllBlogPosts())
		r.Post("/posts", handlers.blogPostHandler.savePost())

		// Comment moderation endpoints
		r.Get("/comments", handlers.commentHandler.getAllComments())
		r.Put("/comments/{commentID}", handlers.commentHandler.editComment())
		r.Delete("/comments/{commentID}", handlers.commentHandler.deleteComment())
		r.Post("/comments/{commentID}/spam", handlers.commentHandler.markComment(true))
		r.Post("/comments/{commentID}/ham", handlers.commentHandler.markComment(false))

		r.Get("/assets", handlers.assetHandler.listAssets())
		r.Post("/assets", handlers.assetHandler.uploadAsset())

		// Access endpoints
		r.Get("/acl", handlers.aclHandler.getACL())
		r.Get("/users", handlers.aclHandler.getUsers())
		r.Post("/users", handlers.aclHandler.createUser())
		r.Put("/groups/{groupID}/members/{userID}", handlers.aclHandler.setMembership(true))
		r.Delete("/groups/{groupID}/members/{userID}", handlers.aclHandler.setMembership(false))
	})
}
