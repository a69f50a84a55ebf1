package predict

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, storage Storage, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(storage, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage offline")
}

func (failingStorage) Put(context.Context, string, string) error {
	return errors.New("storage offline")
}

func TestNewSession_NilStorage(t *testing.T) {
	_, err := NewSession(nil)
	assert.ErrorIs(t, err, ErrNilStorage)
}

func TestSession_Defaults(t *testing.T) {
	s := newTestSession(t, NewMemoryStorage())
	assert.True(t, s.IsSecure())
	assert.Equal(t, "", s.MerchantID())
	assert.Equal(t, "", s.SessionToken())
	assert.Equal(t, "", s.Visitor())
	assert.Equal(t, "", s.AdvertisingID())
	_, ok := s.CustomerID()
	assert.False(t, ok)
	_, ok = s.CustomerEmail()
	assert.False(t, ok)
	assert.True(t, strings.HasPrefix(s.userAgent, "EmarsysPredictSDK|osversion:"), s.userAgent)
}

func TestSession_CustomerAccessors(t *testing.T) {
	s := newTestSession(t, NewMemoryStorage())
	s.SetCustomerID("c1")
	s.SetCustomerEmail("john@doe.com")
	id, ok := s.CustomerID()
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
	email, ok := s.CustomerEmail()
	assert.True(t, ok)
	assert.Equal(t, "john@doe.com", email)

	s.ClearCustomerID()
	s.ClearCustomerEmail()
	_, ok = s.CustomerID()
	assert.False(t, ok)
	_, ok = s.CustomerEmail()
	assert.False(t, ok)
}

func TestSession_URL(t *testing.T) {
	s := newTestSession(t, NewMemoryStorage())

	_, err := s.URL(nil)
	assert.ErrorIs(t, err, ErrNilTransaction)

	_, err = s.URL(NewTransaction())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingMerchantID)
	assert.Equal(t, "The merchantId is required", err.Error())

	s.SetMerchantID("1A65B5A0A05A1C0F")
	u, err := s.URL(NewTransaction())
	require.NoError(t, err)
	assert.Equal(t, "https://recommender.scarabresearch.com/merchants/1A65B5A0A05A1C0F?cp=1", u)

	s.SetSecure(false)
	insecure, err := s.URL(NewTransaction())
	require.NoError(t, err)
	assert.Equal(t, "http://"+strings.TrimPrefix(u, "https://"), insecure)
}

func TestSession_URLWithHostAndCustomer(t *testing.T) {
	s := newTestSession(t, NewMemoryStorage(), WithHost("localhost:8080"))
	s.SetMerchantID("m")
	s.SetCustomerEmail(" CUSTOMER@TEST-mail.com ")
	u, err := s.URL(NewTransaction())
	require.NoError(t, err)
	assert.Equal(t, "https://localhost:8080/merchants/m?eh=19d0b2cccd0b49e81&cp=1", u)
}

func TestSession_AdvertisingIDFromStorage(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Put(context.Background(), AdvertisingIDKey, "stored-cdv"))

	s := newTestSession(t, storage)
	s.SetMerchantID("m")
	assert.Equal(t, "stored-cdv", s.AdvertisingID())

	u, err := s.URL(NewTransaction())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u, "cp=1&vi=stored-cdv"), u)
}

func TestSession_SetAdvertisingIDPersists(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestSession(t, storage)

	s.setAdvertisingID("abc")
	v, ok, err := storage.Get(context.Background(), AdvertisingIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	storage.Reset()
	s.setAdvertisingID("abc")
	_, ok, _ = storage.Get(context.Background(), AdvertisingIDKey)
	assert.False(t, ok, "unchanged id is not written again")
}

func TestSession_StorageFailure(t *testing.T) {
	s := newTestSession(t, failingStorage{})
	assert.Equal(t, "", s.AdvertisingID())
	s.setAdvertisingID("abc")
	assert.Equal(t, "abc", s.AdvertisingID())
}

func resetDefaultSession() {
	defaultMu.Lock()
	s := defaultSession
	defaultSession = nil
	defaultMu.Unlock()
	if s != nil {
		s.Close()
	}
}

func TestInitialize(t *testing.T) {
	t.Cleanup(resetDefaultSession)

	assert.False(t, IsInitialized())
	_, err := Instance()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, Initialize(nil), ErrNilStorage)
	assert.False(t, IsInitialized())

	require.NoError(t, Initialize(NewMemoryStorage()))
	assert.True(t, IsInitialized())
	assert.ErrorIs(t, Initialize(NewMemoryStorage()), ErrAlreadyInitialized)

	a, err := Instance()
	require.NoError(t, err)
	b, err := Instance()
	require.NoError(t, err)
	assert.Same(t, a, b)
}
