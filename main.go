package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/milbratheduardo/task-manager/handlers"
	"github.com/milbratheduardo/task-manager/logging"
	appmiddleware "github.com/milbratheduardo/task-manager/middleware"
	"github.com/milbratheduardo/task-manager/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := os.Getenv("CLIENT_URL")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set.")
	}
	if os.Getenv("JWT_SECRET") == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: JWT_SECRET is not set in the environment variables.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	userCollection := db.Collection("users")
	taskCollection := db.Collection("tasks")

	dashboardBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "DashboardAggregationCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	authService := services.NewAuthService(userCollection)
	userService := services.NewUserService(userCollection, taskCollection)
	taskService := services.NewTaskService(taskCollection, userCollection)
	dashboardService := services.NewDashboardService(taskCollection, dashboardBreaker)

	authMiddleware := appmiddleware.NewAuthMiddleware(authService)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	uploadHandler := handlers.NewUploadHandler(uploadDir)

	r := mux.NewRouter()

	// Public auth routes
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/upload-image", uploadHandler.UploadImage).Methods(http.MethodPost)

	// Authenticated routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Protect)

	protected.HandleFunc("/auth/profile", authHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods(http.MethodPut)

	// Dashboard routes go before /tasks/{id} so "dashboard" is not taken for an id
	protected.HandleFunc("/tasks/dashboard", dashboardHandler.GetDashboardData).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/dashboard/mine", dashboardHandler.GetUserDashboardData).Methods(http.MethodGet)

	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	protected.Handle("/tasks", authMiddleware.AdminOnly(http.HandlerFunc(taskHandler.CreateTask))).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	protected.Handle("/tasks/{id}", authMiddleware.AdminOnly(http.HandlerFunc(taskHandler.DeleteTask))).Methods(http.MethodDelete)
	protected.HandleFunc("/tasks/{id}/status", taskHandler.UpdateTaskStatus).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}/checklist", taskHandler.UpdateTaskChecklist).Methods(http.MethodPut)

	protected.Handle("/users", authMiddleware.AdminOnly(http.HandlerFunc(userHandler.GetUsers))).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", userHandler.GetUserByID).Methods(http.MethodGet)
	protected.Handle("/users/{id}", authMiddleware.AdminOnly(http.HandlerFunc(userHandler.DeleteUser))).Methods(http.MethodDelete)

	// Uploaded images are served statically
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "5000"
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", serverPort),
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost:%s", serverPort)

	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
