package predict

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultHost is the recommender service host.
	DefaultHost = "recommender.scarabresearch.com"

	// CookieName is the response cookie carrying the device tracking identifier.
	CookieName = "cdv"

	defaultStorageTimeout = 2 * time.Second
)

// Session holds the state shared by every transaction: the merchant, the
// customer, and the tokens issued by the service. Setters may be called
// from any goroutine. Completion handlers run one at a time on the
// session's dispatcher goroutine, which is also the only writer of the
// session and visitor tokens and the advertising identifier.
//
// Concurrent sends read and write the same fields; the last response to
// complete wins.
type Session struct {
	storage        Storage
	storageTimeout time.Duration
	client         *http.Client
	host           string
	userAgent      string
	log            zerolog.Logger

	mu            sync.RWMutex
	merchantID    string
	customerID    *string
	customerEmail *string
	secure        bool
	session       string
	visitor       string
	advertisingID string
	closed        bool

	inflight sync.WaitGroup
	events   chan func()
	done     chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithHost points the session at another service host, e.g. "localhost:8080".
func WithHost(host string) Option {
	return func(s *Session) { s.host = host }
}

// WithHTTPClient replaces the HTTP client. Timeouts are the client's; the
// session enforces none.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithPlatform sets the OS version and platform reported in the User-Agent.
func WithPlatform(osVersion, platform string) Option {
	return func(s *Session) { s.userAgent = userAgent(osVersion, platform) }
}

// WithStorageTimeout bounds every storage call.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Session) { s.storageTimeout = d }
}

func userAgent(osVersion, platform string) string {
	return "EmarsysPredictSDK|osversion:" + osVersion + "|platform:" + platform
}

// NewSession creates a session persisting the device identifier in storage.
// Call Close to stop its dispatcher.
func NewSession(storage Storage, opts ...Option) (*Session, error) {
	if storage == nil {
		return nil, ErrNilStorage
	}
	s := &Session{
		storage:        storage,
		storageTimeout: defaultStorageTimeout,
		host:           DefaultHost,
		userAgent:      userAgent(runtime.GOOS, runtime.GOARCH),
		log:            zerolog.Nop(),
		secure:         true,
		events:         make(chan func()),
		done:           make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		s.client = &http.Client{Jar: jar}
	}
	go s.dispatch()
	return s, nil
}

var (
	defaultMu      sync.Mutex
	defaultSession *Session
)

// Initialize creates the process-wide session returned by Instance. It may
// only be called once.
func Initialize(storage Storage, opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSession != nil {
		return ErrAlreadyInitialized
	}
	s, err := NewSession(storage, opts...)
	if err != nil {
		return err
	}
	defaultSession = s
	return nil
}

// IsInitialized reports whether Initialize has been called.
func IsInitialized() bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSession != nil
}

// Instance returns the process-wide session.
func Instance() (*Session, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSession == nil {
		return nil, ErrNotInitialized
	}
	return defaultSession, nil
}

func (s *Session) MerchantID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merchantID
}

// SetMerchantID sets the merchant account. It is required before sending.
func (s *Session) SetMerchantID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchantID = id
}

// CustomerID returns the customer ID and whether one is set.
func (s *Session) CustomerID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.customerID == nil {
		return "", false
	}
	return *s.customerID, true
}

func (s *Session) SetCustomerID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerID = &id
}

func (s *Session) ClearCustomerID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerID = nil
}

// CustomerEmail returns the customer email address and whether one is set.
func (s *Session) CustomerEmail() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.customerEmail == nil {
		return "", false
	}
	return *s.customerEmail, true
}

// SetCustomerEmail sets the customer email address. Only its hash is sent.
func (s *Session) SetCustomerEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerEmail = &email
}

func (s *Session) ClearCustomerEmail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerEmail = nil
}

// SetSecure selects https (true, the default) or http.
func (s *Session) SetSecure(secure bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secure = secure
}

func (s *Session) IsSecure() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secure
}

// SessionToken returns the session token issued by the last response.
func (s *Session) SessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Visitor returns the visitor token issued by the last response.
func (s *Session) Visitor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visitor
}

// AdvertisingID returns the device tracking identifier, or "" if the service
// has not issued one yet.
func (s *Session) AdvertisingID() string {
	s.mu.RLock()
	id := s.advertisingID
	s.mu.RUnlock()
	if id != "" {
		return id
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.storageTimeout)
	defer cancel()
	v, ok, err := s.storage.Get(ctx, AdvertisingIDKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("read advertising id from storage")
		return ""
	}
	if !ok {
		return ""
	}

	s.mu.Lock()
	if s.advertisingID == "" {
		s.advertisingID = v
	}
	id = s.advertisingID
	s.mu.Unlock()
	return id
}

func (s *Session) setAdvertisingID(id string) {
	s.mu.Lock()
	changed := s.advertisingID != id
	s.advertisingID = id
	s.mu.Unlock()
	if !changed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.storageTimeout)
	defer cancel()
	if err := s.storage.Put(ctx, AdvertisingIDKey, id); err != nil {
		s.log.Warn().Err(err).Msg("store advertising id")
	}
}

func (s *Session) state() sessionState {
	adID := s.AdvertisingID()
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := sessionState{advertisingID: adID, session: s.session}
	if s.customerID != nil {
		v := *s.customerID
		st.customerID = &v
	}
	if s.customerEmail != nil {
		v := *s.customerEmail
		st.customerEmail = &v
	}
	return st
}
