// Package api serves look-back scans over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/cumscan/internal/device"
	"github.com/samcharles93/cumscan/internal/harness"
	"github.com/samcharles93/cumscan/internal/slots"
)

// Scanner runs verification scans. *harness.Runner satisfies it.
type Scanner interface {
	Run(ctx context.Context, cfg harness.Config) (*harness.Report, error)
	RunInputs(ctx context.Context, variant slots.Variant, inputs []uint32) (*harness.Report, error)
}

type Config struct {
	// Limit caps scans per second. Zero disables limiting.
	Limit rate.Limit
	Burst int
	// MaxNumVal bounds the partitions a single request may launch.
	MaxNumVal     int
	StoreCapacity int
}

const DefaultMaxNumVal = 1 << 16

type Server struct {
	scanner   Scanner
	props     func() device.Properties
	store     *ReportStore
	limiter   *rate.Limiter
	maxNumVal int
}

func NewServer(scanner Scanner, props func() device.Properties, cfg Config) *Server {
	s := &Server{
		scanner:   scanner,
		props:     props,
		store:     NewReportStore(cfg.StoreCapacity),
		maxNumVal: cfg.MaxNumVal,
	}
	if s.maxNumVal <= 0 {
		s.maxNumVal = DefaultMaxNumVal
	}
	if cfg.Limit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(cfg.Limit, burst)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/scans", s.handleCreateScan)
	e.GET("/v1/scans", s.handleListScans)
	e.GET("/v1/scans/:id", s.handleGetScan)
	e.DELETE("/v1/scans/:id", s.handleDeleteScan)
	e.GET("/v1/device", s.handleDevice)
}

func (s *Server) handleCreateScan(c *echo.Context) error {
	if s.scanner == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "scanner not configured")
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "too many scans, retry later")
	}

	req, err := decodeJSON[ScanRequest](c.Request().Body)
	if err != nil {
		return writeRequestError(c, err)
	}
	variant, err := s.validate(req)
	if err != nil {
		return writeRequestError(c, err)
	}

	ctx := c.Request().Context()
	var rep *harness.Report
	if len(req.Inputs) > 0 {
		rep, err = s.scanner.RunInputs(ctx, variant, req.Inputs)
	} else {
		cfg := harness.Config{
			NumVal:  harness.DefaultNumVal,
			MaxVal:  harness.DefaultMaxVal,
			Variant: variant,
			Seed:    req.Seed,
		}
		if req.NumVal != nil {
			cfg.NumVal = *req.NumVal
		}
		if req.MaxVal != nil {
			cfg.MaxVal = *req.MaxVal
		}
		rep, err = s.scanner.Run(ctx, cfg)
	}
	if err != nil {
		return writeRequestError(c, err)
	}

	s.store.Put(rep)
	return c.JSON(http.StatusOK, rep)
}

// validate applies the server's own limits and resolves the slot variant.
// Payload overflow is left to the harness, which reports it as
// harness.ErrInvalidConfig.
func (s *Server) validate(req ScanRequest) (slots.Variant, error) {
	variant := slots.Atomic
	switch {
	case req.Variant != "" && req.UseAtomic != nil:
		return 0, invalidField("variant", "mutually exclusive with use_atomic")
	case req.Variant != "":
		v, err := slots.ParseVariant(req.Variant)
		if err != nil {
			return 0, invalidField("variant", "%v", err)
		}
		variant = v
	case req.UseAtomic != nil:
		variant = slots.VariantFor(*req.UseAtomic)
	}

	if len(req.Inputs) > 0 {
		if req.NumVal != nil || req.MaxVal != nil {
			return 0, invalidField("inputs", "mutually exclusive with num_val and max_val")
		}
		if len(req.Inputs) > s.maxNumVal {
			return 0, invalidField("inputs", "%d values exceeds server limit %d", len(req.Inputs), s.maxNumVal)
		}
		return variant, nil
	}
	if req.NumVal != nil && *req.NumVal > s.maxNumVal {
		return 0, invalidField("num_val", "%d exceeds server limit %d", *req.NumVal, s.maxNumVal)
	}
	return variant, nil
}

func (s *Server) handleListScans(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   s.store.List(),
	})
}

func (s *Server) handleGetScan(c *echo.Context) error {
	rep, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "scan not found")
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDeleteScan(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "scan not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":      id,
		"deleted": true,
	})
}

func (s *Server) handleDevice(c *echo.Context) error {
	if s.props == nil {
		return writeNotFound(c, "no device attached")
	}
	return c.JSON(http.StatusOK, s.props())
}
