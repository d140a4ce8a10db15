package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/pixspace/internal/calibration"
	"github.com/MeKo-Tech/pixspace/internal/measurement"
	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
)

// descriptorSource looks up image descriptors by image ID.
type descriptorSource interface {
	Descriptor(ctx context.Context, imageID string) (spacing.Descriptor, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	resolver        *spacing.Resolver
	calc            *uncertainty.Calculator
	measurer        *measurement.Measurer
	calibrations    *calibration.Store
	descriptors     descriptorSource
	calibrationFile string
	corsOrigin      string
	maxBodyBytes    int64
	timeoutSec      int
	rateLimiter     *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	CORSOrigin string
	MaxBodyKB  int
	TimeoutSec int

	// DecimalPrecision is the number of significant digits for rounding; 0 selects the default.
	DecimalPrecision uint32

	// Calibrations is the store shared by all requests; nil creates an empty one.
	Calibrations *calibration.Store
	// CalibrationFile, when set, receives the calibration snapshot on Close.
	CalibrationFile string

	// Descriptors resolves requests that name an image ID instead of sending metadata.
	Descriptors *metadata.Memory

	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// Response types for API endpoints.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version,omitempty"`
	Time         string `json:"time"`
	Calibrations int    `json:"calibrations"`
}

// ResolveRequest asks for the pixel spacing of an image. Either Descriptor or
// ImageID of a known image must be given; Handles enable ultrasound regions.
type ResolveRequest struct {
	ImageID    string              `json:"image_id,omitempty"`
	Descriptor *spacing.Descriptor `json:"descriptor,omitempty"`
	Handles    *spacing.Handles    `json:"handles,omitempty"`
}

type ResolveResponse struct {
	Success bool            `json:"success"`
	Result  *spacing.Result `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type DiagonalRequest struct {
	ColPixelSpacing float64 `json:"col_pixel_spacing"`
	RowPixelSpacing float64 `json:"row_pixel_spacing"`
}

type DiagonalResponse struct {
	Success  bool   `json:"success"`
	Diagonal string `json:"diagonal,omitempty"`
	// Rounded is the diagonal rounded as an uncertainty.
	Rounded string `json:"rounded,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RoundRequest carries decimals as JSON numbers or strings. Without an
// uncertainty the value is rounded by its magnitude.
type RoundRequest struct {
	Value       json.Number `json:"value"`
	Uncertainty json.Number `json:"uncertainty,omitempty"`
}

type RoundResponse struct {
	Success     bool   `json:"success"`
	Value       string `json:"value,omitempty"`
	Uncertainty string `json:"uncertainty,omitempty"`
	Places      int32  `json:"places"`
	Multiple    string `json:"multiple,omitempty"`
	Error       string `json:"error,omitempty"`
}

type MeasureRequest struct {
	ImageID    string              `json:"image_id,omitempty"`
	Descriptor *spacing.Descriptor `json:"descriptor,omitempty"`
	Handles    spacing.Handles     `json:"handles"`
}

type MeasureResponse struct {
	Success bool                `json:"success"`
	Result  *measurement.Result `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// CalibrationRequest updates the calibration of one image. Reset wins over a
// factor; Measured and Known derive the factor from a reference length.
type CalibrationRequest struct {
	Factor   float64 `json:"factor,omitempty"`
	Measured float64 `json:"measured,omitempty"`
	Known    float64 `json:"known,omitempty"`
	Reset    bool    `json:"reset,omitempty"`
}

type CalibrationResponse struct {
	Success     bool               `json:"success"`
	ImageID     string             `json:"image_id,omitempty"`
	Calibration *calibration.Entry `json:"calibration,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// NewServer creates a new server instance.
func NewServer(config Config) (*Server, error) {
	store := config.Calibrations
	if store == nil {
		store = calibration.NewStore()
	}

	calc := uncertainty.NewCalculator(config.DecimalPrecision)
	resolver := spacing.NewResolver(spacing.WithCalibrations(store))

	maxBody := int64(config.MaxBodyKB) * 1024
	if maxBody <= 0 {
		maxBody = 256 * 1024
	}

	s := &Server{
		resolver:        resolver,
		calc:            calc,
		measurer:        measurement.New(resolver, calc),
		calibrations:    store,
		calibrationFile: config.CalibrationFile,
		corsOrigin:      config.CORSOrigin,
		maxBodyBytes:    maxBody,
		timeoutSec:      config.TimeoutSec,
	}
	if config.Descriptors != nil {
		s.descriptors = config.Descriptors
	}

	if config.RequestsPerMinute > 0 || config.RequestsPerHour > 0 || config.RequestsPerDay > 0 {
		s.rateLimiter = NewRateLimiter(config.RequestsPerMinute, config.RequestsPerHour, config.RequestsPerDay)
	}

	return s, nil
}

// Close persists the calibrations when a calibration file is configured.
func (s *Server) Close() error {
	if s.calibrationFile == "" {
		return nil
	}
	slog.Info("Saving calibrations", "file", s.calibrationFile, "count", s.calibrations.Len())
	return s.calibrations.SaveFile(s.calibrationFile)
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/spacing/resolve", s.corsMiddleware(s.rateLimitMiddleware(s.resolveHandler)))
	mux.HandleFunc("/uncertainty/diagonal", s.corsMiddleware(s.rateLimitMiddleware(s.diagonalHandler)))
	mux.HandleFunc("/uncertainty/round", s.corsMiddleware(s.rateLimitMiddleware(s.roundHandler)))
	mux.HandleFunc("/measure", s.corsMiddleware(s.rateLimitMiddleware(s.measureHandler)))
	mux.HandleFunc("/calibration", s.corsMiddleware(s.rateLimitMiddleware(s.calibrationsHandler)))
	mux.HandleFunc("/calibration/", s.corsMiddleware(s.rateLimitMiddleware(s.calibrationHandler)))
	mux.HandleFunc("/ws/measure", s.measureWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
