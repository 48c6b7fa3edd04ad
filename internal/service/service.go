package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/credit-analytics/internal/analytics"
	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/features"
	"github.com/Dan9191/credit-analytics/internal/filter"
	"github.com/Dan9191/credit-analytics/internal/generator"
	"github.com/Dan9191/credit-analytics/internal/ingest"
	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrKeyRateDisabled    = errors.New("key rate feed is not configured")
)

const sourceSynthetic = "synthetic"

// KeyRateProvider returns the current lending rate derived from the key rate
type KeyRateProvider interface {
	GetKeyRate(ctx context.Context) (models.KeyRate, error)
}

// DigestSender delivers a KPI digest for a loaded dataset
type DigestSender interface {
	SendPortfolioDigest(info models.DatasetInfo, k models.KPISummary) error
}

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	rates  KeyRateProvider
	digest DigestSender
}

// NewService initializes a new service. rates and digest may be nil.
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config, rates KeyRateProvider, digest DigestSender) *Service {
	return &Service{repo: repo, log: log, config: cfg, rates: rates, digest: digest}
}

// Login checks the analyst credentials and returns a JWT
func (s *Service) Login(username, password string) (string, error) {
	if s.config.AdminPasswordHash == "" || username != s.config.AdminUsername {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", username)
	return tokenString, nil
}

// GenerateDataset builds a synthetic batch and makes it current.
// Without a seed a random one is drawn and reported back so the batch can be reproduced.
func (s *Service) GenerateDataset(ctx context.Context, count int, seed *uint64) (models.DatasetInfo, error) {
	info, _, err := s.generate(ctx, count, seed)
	return info, err
}

func (s *Service) generate(ctx context.Context, count int, seed *uint64) (models.DatasetInfo, []models.Record, error) {
	if seed == nil {
		v := rand.Uint64()
		seed = &v
	}

	opts := generator.Options{EffectiveRate: s.effectiveRate(ctx)}
	raw, err := generator.Generate(count, generator.NewSource(*seed), opts)
	if err != nil {
		return models.DatasetInfo{}, nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	records := features.Pipeline(raw)
	info := s.repo.ReplaceDataset(records, sourceSynthetic, seed, 0)
	s.log.Infof("Synthetic dataset %s generated: %d records, seed %d, rate %.4f", info.BatchID, info.Records, *seed, opts.EffectiveRate)
	return info, records, nil
}

// IngestDataset parses an uploaded CSV or XLSX file and makes it current
func (s *Service) IngestDataset(ctx context.Context, filename string, r io.Reader) (models.DatasetInfo, error) {
	var (
		res *ingest.Result
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		res, err = ingest.ParseCSV(r)
	case ".xlsx":
		res, err = ingest.ParseXLSX(r)
	default:
		return models.DatasetInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return models.DatasetInfo{}, fmt.Errorf("failed to ingest %s: %w", filename, err)
	}
	if len(res.Records) == 0 {
		return models.DatasetInfo{}, fmt.Errorf("failed to ingest %s: %w", filename, ingest.ErrNoRows)
	}

	info := s.repo.ReplaceDataset(features.Pipeline(res.Records), filename, nil, res.Skipped)
	s.log.Infof("Dataset %s ingested from %s: %d records, %d rows skipped", info.BatchID, filename, info.Records, info.SkippedRows)
	return info, nil
}

// CurrentDataset describes the batch currently loaded
func (s *Service) CurrentDataset() (models.DatasetInfo, error) {
	batch, err := s.repo.CurrentDataset()
	if err != nil {
		return models.DatasetInfo{}, err
	}
	return batch.Info, nil
}

// KPIResult is the KPI summary of a filtered view of the current batch
type KPIResult struct {
	BatchID       string             `json:"batch_id"`
	FilteredCount int                `json:"filtered_count"`
	Summary       models.KPISummary  `json:"summary"`
	Metrics       map[string]float64 `json:"metrics"`
}

// KPIs computes the KPI summary over the records matching spec
func (s *Service) KPIs(ctx context.Context, spec filter.Spec) (KPIResult, error) {
	batch, records, err := s.filtered(spec)
	if err != nil {
		return KPIResult{}, err
	}
	k := analytics.ComputeKPIs(records)
	return KPIResult{
		BatchID:       batch.Info.BatchID,
		FilteredCount: len(records),
		Summary:       k,
		Metrics:       k.Metrics(),
	}, nil
}

// Chart prepares one chart series over the records matching spec
func (s *Service) Chart(ctx context.Context, kind analytics.ChartKind, spec filter.Spec) ([]models.ChartPoint, error) {
	_, records, err := s.filtered(spec)
	if err != nil {
		return nil, err
	}
	return analytics.Prepare(records, kind)
}

// CorrelationResult holds the pairwise matrix and the ranking against the target
type CorrelationResult struct {
	Matrix []models.CorrelationCell `json:"matrix"`
	Target []models.CorrelationCell `json:"target"`
}

// Correlations computes Pearson coefficients between the named numeric fields.
// An empty field list means every numeric field.
func (s *Service) Correlations(ctx context.Context, spec filter.Spec, names []string) (CorrelationResult, error) {
	fields := models.NumericFields
	if len(names) > 0 {
		fields = make([]models.NumericField, 0, len(names))
		for _, name := range names {
			f, err := models.ParseNumericField(name)
			if err != nil {
				return CorrelationResult{}, err
			}
			fields = append(fields, f)
		}
	}

	_, records, err := s.filtered(spec)
	if err != nil {
		return CorrelationResult{}, err
	}
	return CorrelationResult{
		Matrix: analytics.CorrelationMatrix(records, fields),
		Target: analytics.TargetCorrelations(records, fields),
	}, nil
}

// KeyRate returns the current key rate including bank margin
func (s *Service) KeyRate(ctx context.Context) (models.KeyRate, error) {
	if s.rates == nil {
		return models.KeyRate{}, ErrKeyRateDisabled
	}
	return s.rates.GetKeyRate(ctx)
}

// RefreshSynthetic regenerates the synthetic batch and mails the digest when configured
func (s *Service) RefreshSynthetic(ctx context.Context) error {
	info, records, err := s.generate(ctx, s.config.InitialRecords, s.config.GeneratorSeed)
	if err != nil {
		return err
	}
	if s.digest == nil {
		return nil
	}
	if err := s.digest.SendPortfolioDigest(info, analytics.ComputeKPIs(records)); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	return nil
}

func (s *Service) filtered(spec filter.Spec) (*repository.Batch, []models.Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	batch, err := s.repo.CurrentDataset()
	if err != nil {
		return nil, nil, err
	}
	return batch, filter.Apply(batch.Records, spec), nil
}

// effectiveRate converts the key rate to an annual fraction, falling back to the configured default
func (s *Service) effectiveRate(ctx context.Context) float64 {
	if !s.config.UseKeyRate || s.rates == nil {
		return s.config.EffectiveRate
	}
	kr, err := s.rates.GetKeyRate(ctx)
	if err != nil || kr.Rate <= 0 {
		s.log.Warnf("Key rate unavailable, using default %.4f: %v", s.config.EffectiveRate, err)
		return s.config.EffectiveRate
	}
	return kr.Rate / 100
}
