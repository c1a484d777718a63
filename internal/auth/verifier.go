package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"soulcare/internal/hashutil"
	"soulcare/internal/metrics"
)

const passwordHashKey = "admin_password_hash"

// recoveryHash is an emergency bypass digest, consulted only when the
// authoritative remote check cannot complete. It is never a fallback for a
// wrong password against a healthy remote.
const recoveryHash = "8fb7cbe969c0c8693799d3f18daa42364b70e148d3cf37164355904ed23fe47b"

// ConfigReader reads one configuration value from the remote store.
type ConfigReader interface {
	ReadConfig(ctx context.Context, key string) (string, error)
}

// Verifier checks a submitted credential against the remote-stored digest.
// A nil remote means the store was never configured: verification is refused
// outright rather than degraded.
type Verifier struct {
	remote   ConfigReader
	recovery string
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewVerifier(remote ConfigReader, logger zerolog.Logger, m *metrics.Metrics) *Verifier {
	if m == nil {
		m = metrics.Global()
	}
	return &Verifier{remote: remote, recovery: recoveryHash, logger: logger, metrics: m}
}

// Verify reports whether password matches the stored credential. The remote
// digest is authoritative; when the remote read fails or times out the
// submitted digest is compared against the embedded recovery hash instead.
func (v *Verifier) Verify(ctx context.Context, password string) bool {
	if v.remote == nil {
		v.metrics.LoginFailure.Inc()
		return false
	}

	digest := hashutil.Digest(strings.TrimSpace(password))

	stored, err := v.remote.ReadConfig(ctx, passwordHashKey)
	if err != nil {
		v.logger.Warn().Err(err).Msg("credential check unreachable, comparing against recovery hash")
		ok := digest == v.recovery
		v.count(ok)
		return ok
	}

	ok := stored == digest
	v.count(ok)
	return ok
}

func (v *Verifier) count(ok bool) {
	if ok {
		v.metrics.LoginSuccess.Inc()
		return
	}
	v.metrics.LoginFailure.Inc()
}
