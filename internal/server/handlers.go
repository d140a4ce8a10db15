package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/MeKo-Tech/pixspace/internal/calibration"
	"github.com/MeKo-Tech/pixspace/internal/measurement"
	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
	"github.com/MeKo-Tech/pixspace/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:       "healthy",
		Version:      version.Version,
		Time:         time.Now().UTC().Format(time.RFC3339),
		Calibrations: s.calibrations.Len(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// resolveHandler resolves the pixel spacing of one image.
func (s *Server) resolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResolveRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.resolve(r.Context(), req.ImageID, req.Descriptor, req.Handles)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, http.StatusOK, ResolveResponse{Success: true, Result: &res})
}

// resolve looks up the descriptor if needed and resolves its spacing.
func (s *Server) resolve(ctx context.Context, imageID string, d *spacing.Descriptor, h *spacing.Handles) (spacing.Result, error) {
	desc, err := s.descriptor(ctx, imageID, d)
	if err != nil {
		return spacing.Result{}, err
	}
	res := s.resolver.Resolve(desc, h)
	spacingResolutionsTotal.WithLabelValues(res.Unit.String(), string(res.Path)).Inc()
	return res, nil
}

// descriptor returns d, or the stored descriptor of imageID when d is nil.
func (s *Server) descriptor(ctx context.Context, imageID string, d *spacing.Descriptor) (spacing.Descriptor, error) {
	if d != nil {
		desc := *d
		if desc.ImageID == "" {
			desc.ImageID = imageID
		}
		return desc, nil
	}
	if imageID == "" {
		return spacing.Descriptor{}, errMissingImage
	}
	if s.descriptors == nil {
		return spacing.Descriptor{}, fmt.Errorf("%w: %s", metadata.ErrNotFound, imageID)
	}
	return s.descriptors.Descriptor(ctx, imageID)
}

// diagonalHandler returns the diagonal of a pixel.
func (s *Server) diagonalHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DiagonalRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	diag := s.calc.PixelDiagonal(req.ColPixelSpacing, req.RowPixelSpacing)
	if diag.Form != apd.Finite {
		roundingRequestsTotal.WithLabelValues("diagonal", "error").Inc()
		s.writeErrorResponse(w, "pixel spacing must be finite", http.StatusBadRequest)
		return
	}

	rounded, err := s.calc.RoundUncertainty(diag)
	if err != nil {
		roundingRequestsTotal.WithLabelValues("diagonal", "error").Inc()
		s.writeErrorResponse(w, err.Error(), statusFor(err))
		return
	}
	roundingRequestsTotal.WithLabelValues("diagonal", "success").Inc()

	s.writeJSON(w, http.StatusOK, DiagonalResponse{
		Success:  true,
		Diagonal: uncertainty.Format(diag),
		Rounded:  rounded.String(),
	})
}

// roundHandler rounds a value to its uncertainty, or by magnitude without one.
func (s *Server) roundHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RoundRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.round(req)
	if err != nil {
		roundingRequestsTotal.WithLabelValues(roundKind(req), "error").Inc()
		s.writeErrorResponse(w, err.Error(), statusFor(err))
		return
	}
	roundingRequestsTotal.WithLabelValues(roundKind(req), "success").Inc()

	s.writeJSON(w, http.StatusOK, resp)
}

func roundKind(req RoundRequest) string {
	if req.Uncertainty == "" {
		return "generic"
	}
	return "uncertainty"
}

func (s *Server) round(req RoundRequest) (RoundResponse, error) {
	if req.Value == "" {
		return RoundResponse{}, fmt.Errorf("%w: value is required", uncertainty.ErrInvalidValue)
	}
	value, err := uncertainty.Parse(req.Value.String())
	if err != nil {
		return RoundResponse{}, err
	}

	if req.Uncertainty == "" {
		rounded, err := s.calc.GenericRounding(value)
		if err != nil {
			return RoundResponse{}, err
		}
		return RoundResponse{Success: true, Value: rounded.String(), Places: rounded.Places, Multiple: multiple(rounded)}, nil
	}

	u, err := uncertainty.Parse(req.Uncertainty.String())
	if err != nil {
		return RoundResponse{}, fmt.Errorf("%w: %v", uncertainty.ErrInvalidUncertainty, err)
	}
	rounded, err := s.calc.RoundToUncertainty(value, u)
	if err != nil {
		return RoundResponse{}, err
	}
	ru, err := s.calc.RoundUncertainty(u)
	if err != nil {
		return RoundResponse{}, err
	}

	return RoundResponse{
		Success:     true,
		Value:       rounded.String(),
		Uncertainty: ru.String(),
		Places:      rounded.Places,
		Multiple:    multiple(rounded),
	}, nil
}

func multiple(r uncertainty.Rounded) string {
	if r.Multiple == nil {
		return ""
	}
	return uncertainty.Format(r.Multiple)
}

// measureHandler measures the distance between two handles.
func (s *Server) measureHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MeasureRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.measure(r.Context(), req)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), statusFor(err))
		return
	}

	s.writeJSON(w, http.StatusOK, MeasureResponse{Success: true, Result: &res})
}

func (s *Server) measure(ctx context.Context, req MeasureRequest) (measurement.Result, error) {
	desc, err := s.descriptor(ctx, req.ImageID, req.Descriptor)
	if err != nil {
		return measurement.Result{}, err
	}
	res, err := s.measurer.Measure(desc, req.Handles)
	if err != nil {
		return measurement.Result{}, err
	}
	spacingResolutionsTotal.WithLabelValues(res.Spacing.Unit.String(), string(res.Spacing.Path)).Inc()
	return res, nil
}

// calibrationsHandler lists or clears all calibrations.
func (s *Server) calibrationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.calibrations.Snapshot())
	case http.MethodDelete:
		s.calibrations.ClearAll()
		calibrationsTotal.WithLabelValues("clear_all").Inc()
		s.writeJSON(w, http.StatusOK, CalibrationResponse{Success: true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// calibrationHandler reads, updates or clears the calibration of one image.
func (s *Server) calibrationHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/calibration/")
	if id == "" || strings.Contains(id, "/") {
		s.writeErrorResponse(w, "invalid image id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		entry, ok := s.calibrations.Entry(id)
		if !ok {
			s.writeErrorResponse(w, "no calibration for "+id, http.StatusNotFound)
			return
		}
		s.writeJSON(w, http.StatusOK, CalibrationResponse{Success: true, ImageID: id, Calibration: &entry})

	case http.MethodPut, http.MethodPost:
		var req CalibrationRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.applyCalibration(id, req); err != nil {
			s.writeErrorResponse(w, err.Error(), statusFor(err))
			return
		}
		entry, _ := s.calibrations.Entry(id)
		s.writeJSON(w, http.StatusOK, CalibrationResponse{Success: true, ImageID: id, Calibration: &entry})

	case http.MethodDelete:
		s.calibrations.Clear(id)
		calibrationsTotal.WithLabelValues("clear").Inc()
		s.writeJSON(w, http.StatusOK, CalibrationResponse{Success: true, ImageID: id})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) applyCalibration(id string, req CalibrationRequest) error {
	switch {
	case req.Reset:
		s.calibrations.Reset(id)
		calibrationsTotal.WithLabelValues("reset").Inc()
		return nil
	case req.Measured != 0 || req.Known != 0:
		f, err := calibration.FactorFromReference(req.Measured, req.Known)
		if err != nil {
			return err
		}
		s.calibrations.Calibrate(id, f)
	case req.Factor > 0:
		s.calibrations.Calibrate(id, req.Factor)
	default:
		return fmt.Errorf("%w: factor must be positive", calibration.ErrInvalidReference)
	}
	calibrationsTotal.WithLabelValues("calibrate").Inc()
	slog.Debug("Calibrated image", "image_id", id, "factor", s.calibrations.Factor(id))
	return nil
}

var errMissingImage = errors.New("descriptor or image_id is required")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errMissingImage),
		errors.Is(err, uncertainty.ErrInvalidUncertainty),
		errors.Is(err, uncertainty.ErrInvalidValue),
		errors.Is(err, calibration.ErrInvalidReference):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size limited JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeJSON writes v with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
