package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apierrors "console/internal/errors"
	"console/internal/helpers"
	"console/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type claimsKey struct{}

// Server is the in-process identity service emulator. It implements the same
// wire contract the console speaks in production, backed by the in-memory
// Store, for local development and integration tests.
type Server struct {
	Store  *Store
	Config models.EmulatorConfiguration

	validate *validator.Validate
}

func NewServer(config models.EmulatorConfiguration) (*Server, error) {
	s := &Server{
		Store:    NewStore(),
		Config:   config,
		validate: validator.New(),
	}

	if config.AdminEmail != "" {
		id, err := s.Store.CreateAccount(config.AdminEmail, config.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		zap.L().Info("Seeded emulator admin account",
			zap.String("email", config.AdminEmail),
			zap.String("account_id", id.String()))
	}

	return s, nil
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/self/mfa", func(r chi.Router) {
				r.Get("/", s.selfHandler(s.handleStatus))
				r.Post("/enrollment", s.selfHandler(s.handleStartEnrollment))
				r.Post("/enrollment/verify", s.selfHandler(s.handleVerifyEnrollment))
				r.Post("/disable", s.selfHandler(s.handleDisable))
				r.Post("/backup-codes", s.selfHandler(s.handleRegenerate))
			})

			r.Route("/accounts/{id}/mfa", func(r chi.Router) {
				r.Get("/", s.accountHandler(s.handleStatus))
				r.Post("/enrollment", s.accountHandler(s.handleStartEnrollment))
				r.Post("/enrollment/verify", s.accountHandler(s.handleVerifyEnrollment))
				r.Post("/disable", s.accountHandler(s.handleDisable))
				r.Post("/backup-codes", s.accountHandler(s.handleRegenerate))
			})
		})
	})

	return r
}

// Start serves the emulator until the listener fails. It logs a ready-to-use
// admin token so a console pointed at the emulator can authenticate without
// a separate sign-in step.
func (s *Server) Start() error {
	if s.Config.AdminEmail != "" {
		if id, exists := s.Store.lookupEmail(s.Config.AdminEmail); exists {
			token, err := helpers.NewAccessToken(s.Config.JWTSecret, id, s.Config.AdminEmail)
			if err == nil {
				zap.L().Info("Emulator admin token", zap.String("token", token))
			}
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      s.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  5 * time.Second,
	}

	zap.L().Info("Identity emulator starting", zap.Int("port", s.Config.Port))
	return server.ListenAndServe()
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		claims, err := helpers.ParseAccessToken(s.Config.JWTSecret, r.Header.Get("Authorization"))
		if err != nil {
			helpers.RespondWithError(w, 401, []string{apierrors.CodeInvalidToken})
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

type mfaHandler func(w http.ResponseWriter, r *http.Request, accountID uuid.UUID)

// selfHandler resolves the acting account from the bearer token's claims.
func (s *Server) selfHandler(h mfaHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(claimsKey{}).(models.AccountClaims)
		if !ok {
			helpers.RespondWithError(w, 403, []string{apierrors.CodeInvalidToken})
			return
		}
		h(w, r, claims.AccountID)
	}
}

// accountHandler resolves the target account from the path (admin form).
func (s *Server) accountHandler(h mfaHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			helpers.RespondWithError(w, 404, []string{apierrors.CodeAccountNotFound})
			return
		}
		h(w, r, id)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body models.AuthLoginBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	id, email, err := s.Store.Authenticate(body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := helpers.NewAccessToken(s.Config.JWTSecret, id, email)
	if err != nil {
		helpers.RespondWithError(w, 500, []string{apierrors.CodeServerError})
		return
	}

	helpers.RespondWithJSON(w, 200, models.AuthLoginResponse{AccessToken: token})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, accountID uuid.UUID) {
	status, err := s.Store.Status(accountID)
	if err != nil {
		respondError(w, err)
		return
	}
	helpers.RespondWithJSON(w, 200, status)
}

func (s *Server) handleStartEnrollment(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	var body models.StartEnrollmentBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	secret, err := s.Store.StartEnrollment(accountID, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	helpers.RespondWithJSON(w, 200, secret)
}

func (s *Server) handleVerifyEnrollment(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	var body models.VerifyEnrollmentBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.Store.VerifyEnrollment(accountID, body.Code); err != nil {
		respondError(w, err)
		return
	}
	helpers.RespondWithJSON(w, 200, nil)
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	var body models.DisableBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.Store.Disable(accountID, body.Password); err != nil {
		respondError(w, err)
		return
	}
	helpers.RespondWithJSON(w, 200, nil)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	var body models.RegenerateBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	codes, err := s.Store.Regenerate(accountID, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	helpers.RespondWithJSON(w, 200, models.RegenerateResponse{BackupCodes: codes})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, body interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		helpers.RespondWithError(w, 400, []string{apierrors.CodeBadRequest})
		return false
	}
	if err := s.validate.Struct(body); err != nil {
		helpers.RespondWithError(w, 400, []string{apierrors.CodeBadRequest})
		return false
	}
	return true
}

func respondError(w http.ResponseWriter, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		helpers.RespondWithError(w, apiErr.Status, []string{apiErr.Code})
		return
	}
	helpers.RespondWithError(w, 500, []string{apierrors.CodeServerError})
}
