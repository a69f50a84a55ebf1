package predict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrorHandler receives a failure that happened after SendTransaction returned.
type ErrorHandler func(err error)

// CompletionHandler is called once every result of a successful send has
// been routed to its ResultHandler.
type CompletionHandler func()

// URL returns the request URL for t. It validates and serializes t the same
// way SendTransaction does.
func (s *Session) URL(t *Transaction) (string, error) {
	if t == nil {
		return "", ErrNilTransaction
	}
	s.mu.RLock()
	merchantID, secure := s.merchantID, s.secure
	s.mu.RUnlock()
	if merchantID == "" {
		return "", newError(CodeMissingMerchantID, ErrMissingMerchantID.Message, nil)
	}

	q, errs, err := t.serialize(s.state())
	if err != nil {
		return "", err
	}
	for _, e := range errs {
		s.log.Debug().Str("kind", e.Kind).Str("command", e.Command).Msg(e.Message)
	}

	scheme := "https"
	if !secure {
		scheme = "http"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     s.host,
		Path:     "/merchants/" + merchantID,
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// SendTransaction sends t to the recommender service. Missing merchant id,
// a repeated recommend logic, a nil transaction or a closed session are
// returned at once and nothing is sent. Otherwise the request runs in the
// background exactly once: on success the results are routed to the
// handlers registered on t and onComplete is called, on failure onError is
// called. Both handlers are optional. Validation problems do not stop the
// send; they travel with the request.
func (s *Session) SendTransaction(t *Transaction, onError ErrorHandler, onComplete CompletionHandler) error {
	rawURL, err := s.URL(t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	s.log.Debug().Str("url", rawURL).Msg("sending transaction")

	go func() {
		defer s.inflight.Done()
		resp, cdv, err := s.exchange(context.Background(), rawURL)
		s.events <- func() {
			if err != nil {
				s.log.Error().Err(err).Str("code", CodeOf(err).String()).Msg("transaction failed")
				if onError != nil {
					onError(err)
				}
				return
			}
			s.mu.Lock()
			s.session = resp.Session
			s.visitor = resp.Visitor
			s.mu.Unlock()
			s.setAdvertisingID(cdv)

			t.handleResults(resp.Results, s.log)
			if onComplete != nil {
				onComplete()
			}
		}
	}()
	return nil
}

// exchange performs the GET and decodes the response. It touches no
// session state.
func (s *Session) exchange(ctx context.Context, rawURL string) (*Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", newError(CodeUnknown, ErrUnknown.Message, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, "", newError(CodeUnknown, ErrUnknown.Message, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			s.log.Warn().Err(err).Msg("unable to close response body")
		}
	}()

	if res.StatusCode >= 300 {
		return nil, "", newError(CodeBadHTTPStatus, fmt.Sprintf("Unexpected http status code %d", res.StatusCode), nil)
	}

	cdv, ok := s.findCookie(res)
	if !ok {
		return nil, "", newError(CodeMissingCDVCookie, ErrMissingCookie.Message, nil)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", newError(CodeUnknown, ErrUnknown.Message, fmt.Errorf("read body: %w", err))
	}
	parsed, err := ParseResponse(body)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, "", e
		}
		return nil, "", newError(CodeUnknown, ErrUnknown.Message, err)
	}
	s.log.Debug().Int("features", len(parsed.Results)).Str("cohort", parsed.Cohort).Msg("response parsed")
	return parsed, cdv, nil
}

// findCookie looks for the tracking cookie in the response, then in the
// client's cookie jar.
func (s *Session) findCookie(res *http.Response) (string, bool) {
	for _, c := range res.Cookies() {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, true
		}
	}
	if s.client.Jar == nil || res.Request == nil {
		return "", false
	}
	for _, c := range s.client.Jar.Cookies(res.Request.URL) {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// dispatch runs completion work one event at a time.
func (s *Session) dispatch() {
	defer close(s.done)
	for fn := range s.events {
		fn()
	}
}

// Close waits for in-flight sends, delivers their callbacks and stops the
// dispatcher. Later sends fail with ErrSessionClosed. Close must not be
// called from a handler.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
	close(s.events)
	<-s.done
}
