package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/credit-analytics/internal/analytics"
	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/filter"
	"github.com/Dan9191/credit-analytics/internal/ingest"
	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/repository"
)

type stubRates struct {
	rate  float64
	err   error
	calls int
}

func (s *stubRates) GetKeyRate(context.Context) (models.KeyRate, error) {
	s.calls++
	if s.err != nil {
		return models.KeyRate{}, s.err
	}
	return models.KeyRate{Rate: s.rate, BaseRate: s.rate}, nil
}

type stubDigest struct {
	info models.DatasetInfo
	kpis models.KPISummary
	err  error
	sent int
}

func (s *stubDigest) SendPortfolioDigest(info models.DatasetInfo, k models.KPISummary) error {
	s.sent++
	s.info, s.kpis = info, k
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		AdminUsername:  "analyst",
		EffectiveRate:  0.12,
		InitialRecords: 300,
	}
}

func newTestService(cfg *config.Config, rates KeyRateProvider, digest DigestSender) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(repository.NewRepository(), log, cfg, rates, digest)
}

func seedPtr(v uint64) *uint64 { return &v }

func TestService_NoDataset(t *testing.T) {
	svc := newTestService(testConfig(), nil, nil)
	ctx := context.Background()

	_, err := svc.CurrentDataset()
	assert.ErrorIs(t, err, repository.ErrNoDataset)
	_, err = svc.KPIs(ctx, filter.Spec{})
	assert.ErrorIs(t, err, repository.ErrNoDataset)
	_, err = svc.Chart(ctx, analytics.ChartGender, filter.Spec{})
	assert.ErrorIs(t, err, repository.ErrNoDataset)
}

func TestService_GenerateAndAnalyse(t *testing.T) {
	svc := newTestService(testConfig(), nil, nil)
	ctx := context.Background()

	info, err := svc.GenerateDataset(ctx, 1000, seedPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 1000, info.Records)
	require.NotNil(t, info.Seed)
	assert.Equal(t, uint64(1), *info.Seed)

	res, err := svc.KPIs(ctx, filter.Spec{})
	require.NoError(t, err)
	assert.Equal(t, info.BatchID, res.BatchID)
	assert.Equal(t, 1000, res.FilteredCount)
	assert.Equal(t, 1000.0, res.Metrics["total_applications"])
	assert.LessOrEqual(t, res.Summary.DefaultRate, 50.0)

	women, err := svc.KPIs(ctx, filter.Spec{Genders: []string{models.GenderFemale}})
	require.NoError(t, err)
	assert.Less(t, women.FilteredCount, 1000)
	assert.Equal(t, 100.0, women.Summary.FemalePct)

	points, err := svc.Chart(ctx, analytics.ChartDefaultByEducation, filter.Spec{})
	require.NoError(t, err)
	assert.NotEmpty(t, points)

	_, err = svc.Chart(ctx, analytics.ChartKind("nope"), filter.Spec{})
	assert.ErrorIs(t, err, analytics.ErrUnknownChartKind)

	_, err = svc.KPIs(ctx, filter.Spec{IncomeBracket: "huge"})
	assert.ErrorIs(t, err, filter.ErrInvalidSpec)
}

func TestService_GenerateWithoutSeedReportsIt(t *testing.T) {
	svc := newTestService(testConfig(), nil, nil)
	info, err := svc.GenerateDataset(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.NotNil(t, info.Seed)

	_, err = svc.GenerateDataset(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestService_Correlations(t *testing.T) {
	svc := newTestService(testConfig(), nil, nil)
	ctx := context.Background()
	_, err := svc.GenerateDataset(ctx, 400, seedPtr(3))
	require.NoError(t, err)

	res, err := svc.Correlations(ctx, filter.Spec{}, []string{"income", "credit"})
	require.NoError(t, err)
	assert.Len(t, res.Matrix, 4)
	assert.Len(t, res.Target, 2)

	all, err := svc.Correlations(ctx, filter.Spec{}, nil)
	require.NoError(t, err)
	assert.Len(t, all.Matrix, len(models.NumericFields)*len(models.NumericFields))

	_, err = svc.Correlations(ctx, filter.Spec{}, []string{"shoe_size"})
	assert.Error(t, err)
}

func TestService_IngestDataset(t *testing.T) {
	svc := newTestService(testConfig(), nil, nil)
	ctx := context.Background()

	csv := "TARGET,CODE_GENDER,DAYS_BIRTH,AMT_INCOME_TOTAL,AMT_CREDIT\n1,M,-10000,100000,200000\n0,F,-15000,300000,900000\nbad,F,-1,1,1\n"
	info, err := svc.IngestDataset(ctx, "applications.CSV", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "applications.CSV", info.Source)
	assert.Equal(t, 2, info.Records)
	assert.Equal(t, 1, info.SkippedRows)
	assert.Nil(t, info.Seed)

	res, err := svc.KPIs(ctx, filter.Spec{IncomeBracket: filter.BracketHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilteredCount)

	_, err = svc.IngestDataset(ctx, "applications.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.IngestDataset(ctx, "a.csv", strings.NewReader("TARGET\n1\n"))
	assert.ErrorIs(t, err, ingest.ErrMissingColumns)

	_, err = svc.IngestDataset(ctx, "a.csv", strings.NewReader("TARGET,CODE_GENDER,DAYS_BIRTH,AMT_INCOME_TOTAL,AMT_CREDIT\nx,M,1,1,1\n"))
	assert.ErrorIs(t, err, ingest.ErrNoRows)

	current, err := svc.CurrentDataset()
	require.NoError(t, err)
	assert.Equal(t, info.BatchID, current.BatchID, "failed uploads keep the previous batch")
}

func TestService_EffectiveRateFromKeyRate(t *testing.T) {
	cfg := testConfig()
	cfg.UseKeyRate = true
	rates := &stubRates{rate: 24}

	withFeed := newTestService(cfg, rates, nil)
	_, err := withFeed.GenerateDataset(context.Background(), 200, seedPtr(5))
	require.NoError(t, err)
	assert.Equal(t, 1, rates.calls)

	fallback := newTestService(cfg, &stubRates{err: errors.New("down")}, nil)
	_, err = fallback.GenerateDataset(context.Background(), 200, seedPtr(5))
	require.NoError(t, err)

	high, _ := withFeed.KPIs(context.Background(), filter.Spec{})
	base, _ := fallback.KPIs(context.Background(), filter.Spec{})
	assert.Equal(t, base.Summary.MeanCredit, high.Summary.MeanCredit)
	assert.Greater(t, high.Summary.MeanAnnuity, base.Summary.MeanAnnuity, "higher rate, higher annuity")
}

func TestService_KeyRate(t *testing.T) {
	_, err := newTestService(testConfig(), nil, nil).KeyRate(context.Background())
	assert.ErrorIs(t, err, ErrKeyRateDisabled)

	kr, err := newTestService(testConfig(), &stubRates{rate: 26}, nil).KeyRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26.0, kr.Rate)
}

func TestService_RefreshSynthetic(t *testing.T) {
	cfg := testConfig()
	cfg.GeneratorSeed = seedPtr(77)
	digest := &stubDigest{}
	svc := newTestService(cfg, nil, digest)

	require.NoError(t, svc.RefreshSynthetic(context.Background()))
	assert.Equal(t, 1, digest.sent)
	assert.Equal(t, 300, digest.kpis.TotalApplications)
	assert.Equal(t, 300, digest.info.Records)

	digest.err = errors.New("smtp down")
	assert.ErrorContains(t, svc.RefreshSynthetic(context.Background()), "smtp down")
}

func TestService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := testConfig()
	cfg.AdminPasswordHash = string(hash)
	svc := newTestService(cfg, nil, nil)

	token, err := svc.Login("analyst", "s3cret")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "analyst", claims.Subject)

	_, err = svc.Login("analyst", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("someone", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = newTestService(testConfig(), nil, nil).Login("analyst", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "login is disabled without a password hash")
}
