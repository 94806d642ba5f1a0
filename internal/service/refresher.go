package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/port"
)

// trackedSession is one embedded session the keeper refreshes for.
type trackedSession struct {
	sessionToken string
	credential   *domain.SessionCredential
	lastSeen     time.Time
}

// CredentialKeeper holds the backend credential for each active embedded
// session and re-exchanges before the short-lived credential expires.
// Sessions idle longer than idleMax are evicted instead of refreshed.
type CredentialKeeper struct {
	mu        sync.Mutex
	sessions  map[string]*trackedSession
	exchanger port.TokenExchanger
	interval  time.Duration
	idleMax   time.Duration
	logger    *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCredentialKeeper creates a keeper. Call Start to begin the refresh
// loop and Stop on shutdown.
func NewCredentialKeeper(exchanger port.TokenExchanger, interval, idleMax time.Duration, logger *zap.Logger) *CredentialKeeper {
	return &CredentialKeeper{
		sessions:  make(map[string]*trackedSession),
		exchanger: exchanger,
		interval:  interval,
		idleMax:   idleMax,
		logger:    logger,
	}
}

// Start launches the background refresh loop.
func (k *CredentialKeeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	k.done = make(chan struct{})

	go func() {
		defer close(k.done)
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				k.refreshAll(ctx)
			}
		}
	}()
}

// Stop halts the refresh loop and waits for it to exit.
func (k *CredentialKeeper) Stop() {
	if k.cancel == nil {
		return
	}
	k.cancel()
	<-k.done
}

// Track registers a session token and its freshly exchanged credential.
func (k *CredentialKeeper) Track(shopDomain, sessionToken string, cred *domain.SessionCredential) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sessions[shopDomain] = &trackedSession{
		sessionToken: sessionToken,
		credential:   cred,
		lastSeen:     time.Now(),
	}
}

// Touch records activity for a session and keeps the newest session
// token, which is what the keeper will re-exchange next.
func (k *CredentialKeeper) Touch(shopDomain, sessionToken string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if s, ok := k.sessions[shopDomain]; ok {
		s.sessionToken = sessionToken
		s.lastSeen = time.Now()
	}
}

// Credential returns the live backend credential for a shop, if any.
func (k *CredentialKeeper) Credential(shopDomain string) (*domain.SessionCredential, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.sessions[shopDomain]
	if !ok || s.credential == nil || s.credential.Expired(time.Now()) {
		return nil, false
	}
	return s.credential, true
}

// Forget drops a shop's session state. Used on uninstall.
func (k *CredentialKeeper) Forget(shopDomain string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.sessions, shopDomain)
}

// refreshAll re-exchanges every active session. Failures are logged and
// the previous credential stays in place until it expires on its own.
func (k *CredentialKeeper) refreshAll(ctx context.Context) {
	now := time.Now()

	k.mu.Lock()
	batch := make(map[string]string, len(k.sessions))
	for shop, s := range k.sessions {
		if now.Sub(s.lastSeen) > k.idleMax {
			delete(k.sessions, shop)
			continue
		}
		batch[shop] = s.sessionToken
	}
	k.mu.Unlock()

	for shop, token := range batch {
		cred, err := k.exchanger.Exchange(ctx, shop, token)
		if err != nil {
			k.logger.Warn("credential keeper: refresh failed",
				zap.String("shop", shop),
				zap.Error(err),
			)
			continue
		}
		k.mu.Lock()
		if s, ok := k.sessions[shop]; ok {
			s.credential = cred
		}
		k.mu.Unlock()
	}
}
