package routes

import (
	"context"
	"fmt"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MINHYEOKJEON99/mat-we/internal/config"
	"github.com/MINHYEOKJEON99/mat-we/internal/handlers"
	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/middleware"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/realtime/bus"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
	chatws "github.com/MINHYEOKJEON99/mat-we/internal/websocket"
)

// Infra is the process-level plumbing main builds before routing.
type Infra struct {
	Bus     bus.Bus
	Storage services.StorageService
	Mailer  services.Mailer
	Log     *logger.Logger
}

func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *pgxpool.Pool, infra Infra) error {
	log := infra.Log
	if log == nil {
		log = logger.Nop()
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	authService := services.NewAuthService(
		userRepo,
		profileRepo,
		infra.Mailer,
		services.NewOAuthProviders(cfg),
		cfg.JWTSecret,
		cfg.AppBaseURL,
		log,
	)
	profileService := services.NewProfileService(profileRepo, infra.Storage, log)
	sessionService := services.NewSessionService(sessionRepo, profileRepo, cfg.Location)
	chatService := services.NewChatService(sessionService, messageRepo, infra.Bus, log)
	courseService := services.NewCourseService(courseRepo, videoRepo, enrollmentRepo, profileRepo)
	communityService := services.NewCommunityService(db, postRepo, commentRepo, likeRepo)

	chatHub := chatws.NewHub(chatService, log)
	go chatHub.Run()
	if err := infra.Bus.StartForwarder(ctx, chatHub.HandleEvent); err != nil {
		return fmt.Errorf("start realtime forwarder: %w", err)
	}

	authHandler := handlers.NewAuthHandler(authService, cfg.SecureCookies(), log)
	profileHandler := handlers.NewProfileHandler(profileService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	chatHandler := handlers.NewChatHandler(chatService, sessionService, chatHub)
	courseHandler := handlers.NewCourseHandler(courseService)
	communityHandler := handlers.NewCommunityHandler(communityService)

	app.Use(middleware.LoadIdentity(cfg.JWTSecret))
	app.Use(middleware.RouteGuard(profileRepo, log))

	authRequired := middleware.AuthRequired()

	app.Get("/", courseHandler.Home)
	app.Get("/dashboard", profileHandler.Dashboard)

	auth := app.Group("/auth")
	auth.Get("/login", authHandler.LoginPage)
	auth.Post("/login", authHandler.Login)
	auth.Get("/signup", authHandler.SignupPage)
	auth.Post("/signup", authHandler.Signup)
	auth.Get("/signup-success", authHandler.SignupSuccess)
	auth.Get("/confirm", authHandler.Confirm)
	auth.Get("/logout", authHandler.Logout)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/oauth/:provider", authHandler.OAuthStart)
	auth.Get("/callback", authHandler.OAuthCallback)
	auth.Get("/error", authHandler.AuthError)
	auth.Get("/complete-profile", authRequired, profileHandler.CompleteProfileForm)
	auth.Post("/complete-profile", authRequired, profileHandler.CompleteProfile)

	app.Get("/courses", courseHandler.Catalog)
	app.Get("/courses/:id", courseHandler.Detail)
	app.Post("/courses/:id/enroll", authRequired, courseHandler.Enroll)
	app.Get("/instructors/:id", courseHandler.InstructorPage)

	student := app.Group("/student")
	student.Get("/courses", courseHandler.StudentCourses)
	student.Get("/courses/:id", courseHandler.StudentCourse)
	student.Get("/pt-sessions", sessionHandler.List(models.RoleStudent))
	student.Post("/pt-sessions", sessionHandler.Create)

	instructor := app.Group("/instructor")
	instructor.Get("/courses", courseHandler.InstructorCourses)
	instructor.Post("/courses", courseHandler.CreateCourse)
	instructor.Get("/courses/:id", courseHandler.OwnedCourse)
	instructor.Put("/courses/:id", courseHandler.UpdateCourse)
	instructor.Delete("/courses/:id", courseHandler.DeleteCourse)
	instructor.Get("/courses/:id/videos", courseHandler.OwnedCourse)
	instructor.Post("/courses/:id/videos", courseHandler.AddVideo)
	instructor.Get("/pt-sessions", sessionHandler.List(models.RoleInstructor))

	chat := app.Group("/chat")
	chat.Get("/:id", chatHandler.View)
	chat.Post("/:id/messages", chatHandler.PostMessage)
	chat.Post("/:id/confirm", sessionHandler.Confirm)
	chat.Post("/:id/reject", sessionHandler.Reject)
	chat.Get("/:id/ws", chatHandler.WebSocketGate, websocket.New(chatHandler.HandleWebSocket))

	community := app.Group("/community")
	community.Get("", communityHandler.Feed)
	community.Get("/new", communityHandler.NewPostForm)
	community.Post("/new", communityHandler.CreatePost)
	community.Get("/:id", communityHandler.PostDetail)
	community.Put("/:id", authRequired, communityHandler.UpdatePost)
	community.Delete("/:id", authRequired, communityHandler.DeletePost)
	community.Post("/:id/like", authRequired, communityHandler.Like)
	community.Delete("/:id/like", authRequired, communityHandler.Unlike)
	community.Post("/:id/comments", authRequired, communityHandler.AddComment)
	community.Delete("/:id/comments/:commentID", authRequired, communityHandler.DeleteComment)

	return nil
}
