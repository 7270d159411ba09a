// Package httpapi exposes the services over a small JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
	"github.com/gorilla/mux"
)

type Identity interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

type Catalog interface {
	ListProducts(ctx context.Context, filters map[string]any, page, pageSize int) (*models.ProductPage, error)
	CreateProduct(ctx context.Context, p models.NewProduct) (*models.Product, error)
	GetProductWithOwner(ctx context.Context, id string) (*models.ProductWithOwner, error)
}

type Favorites interface {
	AddFavorite(ctx context.Context, userID, productID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, userID, productID string) (*models.User, error)
}

type Conversations interface {
	FindOrCreateConversation(ctx context.Context, a, b string) (string, error)
	CreateMessage(ctx context.Context, m models.NewMessage) (string, error)
	ListUsersWithConversations(ctx context.Context) ([]models.UserWithConversations, error)
}

type Media interface {
	CreateImageUpload(ctx context.Context, userID, contentType string) (*services.ImageUpload, error)
}

// Services groups the handlers' dependencies.
type Services struct {
	Identity      Identity
	Catalog       Catalog
	Favorites     Favorites
	Conversations Conversations
	Media         Media
}

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address string
	svc     Services
	logger  logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, svc Services) *HTTPServer {
	return &HTTPServer{
		address: address,
		svc:     svc,
		logger:  l.With("module", "http_server"),
	}
}

// Router builds the route table.
func (s *HTTPServer) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.getProduct).Methods(http.MethodGet)

	api.Handle("/me", s.requireUser(s.me)).Methods(http.MethodGet)
	api.Handle("/products", s.requireUser(s.createProduct)).Methods(http.MethodPost)
	api.Handle("/favorites/{productId}", s.requireUser(s.addFavorite)).Methods(http.MethodPost)
	api.Handle("/favorites/{productId}", s.requireUser(s.removeFavorite)).Methods(http.MethodDelete)
	api.Handle("/conversations", s.requireUser(s.listConversations)).Methods(http.MethodGet)
	api.Handle("/conversations", s.requireUser(s.openConversation)).Methods(http.MethodPost)
	api.Handle("/messages", s.requireUser(s.createMessage)).Methods(http.MethodPost)
	api.Handle("/uploads/images", s.requireUser(s.createImageUpload)).Methods(http.MethodPost)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
