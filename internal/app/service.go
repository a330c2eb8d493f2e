package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
	"github.com/ZidanAK22/RateYourGroupMates/internal/recap"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
)

type Service struct {
	Config *Config
	Store  store.RatingStore
	Auth   *Auth
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config: config,
		Store:  store,
		Auth:   auth,
	}, nil
}

func (s *Service) ValidateAuthAndParticipant(r *http.Request, nrp string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), nrp, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// CurrentParticipant resolves the signed-in participant for a request, or
// nil when the request carries no valid identity.
func (s *Service) CurrentParticipant(r *http.Request) (*models.Participant, error) {
	nrp := r.Header.Get(s.Config.API.ParticipantIDHeader)
	if nrp == "" {
		return nil, nil
	}

	if err := s.ValidateAuthAndParticipant(r, nrp); err != nil {
		return nil, err
	}

	return s.Store.GetParticipant(nrp)
}

// SubmitRating validates the assembled form state and persists exactly one
// rating row. Validation failures name the first offending field and never
// reach the store; write failures come back as WriteError with the form
// state untouched, retry is up to the user.
func (s *Service) SubmitRating(input models.RatingInput) (*models.Rating, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	rating := input.ToRating()
	if err := s.Store.CreateRating(rating); err != nil {
		return nil, &models.WriteError{Err: err}
	}

	return rating, nil
}

// Recap builds the deduplicated, sorted recap table.
func (s *Service) Recap() ([]models.RecapRow, error) {
	return recap.Build(s.Store)
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
