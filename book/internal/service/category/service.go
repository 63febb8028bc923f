package category

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/config"
	cb "github.com/Astemirdum/book-service/pkg/circuit_breaker"
)

const validatePath = "/api/v1/categories/validate"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrUnexpectedStatus = errors.New("category service: unexpected status")

// Service asks the category service whether ids are known and active.
type Service struct {
	log     *zap.Logger
	client  *http.Client
	baseURL string
	cb      cb.CircuitBreaker
}

func NewService(log *zap.Logger, cfg config.CategoryHTTPServer, breaker cb.CircuitBreaker) *Service {
	return &Service{
		log:     log.Named("category"),
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: fmt.Sprintf("http://%s", net.JoinHostPort(cfg.Host, cfg.Port)),
		cb:      breaker,
	}
}

// ValidateCategories returns an error when validity could not be confirmed,
// including an open breaker (cb.ErrOpenCB).
func (s *Service) ValidateCategories(ctx context.Context, ids []int64) (bool, error) {
	var valid bool
	err := s.cb.Call(func() error {
		var err error
		valid, err = s.validate(ctx, ids)
		return err
	})
	if err != nil {
		s.log.Warn("validate categories", zap.Int64s("ids", ids), zap.String("cb", s.cb.State().String()), zap.Error(err))
		return false, err
	}
	return valid, nil
}

func (s *Service) validate(ctx context.Context, ids []int64) (bool, error) {
	b := bytes.NewBuffer(nil)
	if err := json.NewEncoder(b).Encode(ids); err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+validatePath, b)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "category service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.Wrapf(ErrUnexpectedStatus, "%d", resp.StatusCode)
	}
	var valid bool
	if err := json.NewDecoder(resp.Body).Decode(&valid); err != nil {
		return false, errors.Wrap(err, "decode category response")
	}
	return valid, nil
}
