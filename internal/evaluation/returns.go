package evaluation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// ErrInsufficientHistory is returned when a return series is too short
var ErrInsufficientHistory = errors.New("evaluation: at least 2 periods of returns required")

// Returns holds aligned periodic simple returns per asset
// ⭐ SSOT: 종목 코드 순서 = 컬럼 순서
type Returns struct {
	codes  []string
	series [][]float64
	index  map[string]int
}

// NewReturns validates and indexes series; codes are normalized
func NewReturns(codes []string, series [][]float64) (*Returns, error) {
	if len(codes) == 0 {
		return nil, errors.New("evaluation: no assets")
	}
	if len(codes) != len(series) {
		return nil, fmt.Errorf("evaluation: %d codes but %d series", len(codes), len(series))
	}

	r := &Returns{
		codes:  make([]string, len(codes)),
		series: series,
		index:  make(map[string]int, len(codes)),
	}

	periods := len(series[0])
	for i, code := range codes {
		code = portfolio.NormalizeCode(code)
		if _, dup := r.index[code]; dup {
			return nil, fmt.Errorf("evaluation: duplicate asset %s", code)
		}
		if len(series[i]) != periods {
			return nil, fmt.Errorf("evaluation: %s has %d periods, want %d", code, len(series[i]), periods)
		}
		for t, v := range series[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("evaluation: %s period %d is not finite", code, t)
			}
		}
		r.codes[i] = code
		r.index[code] = i
	}

	if periods < 2 {
		return nil, ErrInsufficientHistory
	}

	return r, nil
}

// Codes returns the asset codes in column order
func (r *Returns) Codes() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Periods returns the number of observations per asset
func (r *Returns) Periods() int {
	return len(r.series[0])
}

// Series returns the return series of code
func (r *Returns) Series(code string) ([]float64, bool) {
	i, ok := r.index[code]
	if !ok {
		return nil, false
	}
	return r.series[i], true
}

// LoadReturnsCSV reads a returns file: header = codes, one row per period
func LoadReturnsCSV(path string) (*Returns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ReadReturnsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ReadReturnsCSV parses returns CSV from r
func ReadReturnsCSV(r io.Reader) (*Returns, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	series := make([][]float64, len(header))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, header[i], err)
			}
			series[i] = append(series[i], v)
		}
	}

	return NewReturns(header, series)
}

// AssetSpec describes a synthetic asset with annualized drift and volatility
type AssetSpec struct {
	Code  string
	Mu    float64 // 연 기대수익률
	Sigma float64 // 연 변동성
}

// SimulateReturns draws normally distributed periodic returns per asset.
// Annual parameters are scaled to one period (mu/T, sigma/sqrt(T)).
func SimulateReturns(specs []AssetSpec, periods, periodsPerYear int, rng *rand.Rand) (*Returns, error) {
	if periods < 2 {
		return nil, ErrInsufficientHistory
	}
	if periodsPerYear <= 0 {
		return nil, fmt.Errorf("evaluation: periods per year must be > 0")
	}

	codes := make([]string, len(specs))
	series := make([][]float64, len(specs))
	sqrtT := math.Sqrt(float64(periodsPerYear))

	for i, spec := range specs {
		if spec.Sigma < 0 {
			return nil, fmt.Errorf("evaluation: %s sigma must be >= 0", spec.Code)
		}
		mean := spec.Mu / float64(periodsPerYear)
		std := spec.Sigma / sqrtT

		codes[i] = spec.Code
		series[i] = make([]float64, periods)
		for t := range series[i] {
			series[i][t] = mean + std*rng.NormFloat64()
		}
	}

	return NewReturns(codes, series)
}
