package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"

	"clinic-scheduling-server/internal/metrics"
	"clinic-scheduling-server/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.scheduling")

var validate = validator.New()

// bcrypt rejects inputs longer than maxPasswordLength bytes.
const (
	minPasswordLength = 8
	maxPasswordLength = 72
)

// Service implements appointment lifecycle rules, directory queries and
// staff/profile management. It is safe for concurrent use; the only
// coordination between sessions is the status compare-and-set in the store.
type Service struct {
	store   Store
	cache   DirectoryCache
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the doctor directory cache.
func WithCache(cache DirectoryCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithMetrics records transition outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a scheduling service.
func NewService(store Store, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("scheduling: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:  store,
		cache:  noopCache{},
		logger: logger.With("component", "scheduling"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
